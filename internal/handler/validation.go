package handler

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"rollcall/internal/attendance"
)

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Printf("binding engine is not validator/v10, datekey disabled")
			return
		}
		if err := v.RegisterValidation("datekey", validDateKey); err != nil {
			log.Printf("register datekey validator: %v", err)
		}
	})
}

func validDateKey(fl validator.FieldLevel) bool {
	_, err := attendance.ParseDateKey(fl.Field().String())
	return err == nil
}

type dayURI struct {
	Date string `uri:"date" binding:"required,datekey"`
}

type presenceURI struct {
	Date     string `uri:"date" binding:"required,datekey"`
	MemberID string `uri:"memberId" binding:"required"`
}
