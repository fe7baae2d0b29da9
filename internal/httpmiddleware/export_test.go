package httpmiddleware

import "time"

func (l *TokenBucket) SetClock(now func() time.Time) { l.now = now }
