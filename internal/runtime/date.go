package runtime

import (
	"fmt"
	"time"
)

// Date is the runtime Date value. Under the virtual clock, `new Date()`
// reflects the clock's current milliseconds offset from the Unix epoch
// start the driver seeds (zero by default), so compiled-program output
// stays deterministic.
type Date struct {
	Ms float64
}

// NewDate creates a Date at the given epoch milliseconds.
func NewDate(ms float64) *Date { return &Date{Ms: ms} }

// GetTime implements Date.prototype.getTime.
func (d *Date) GetTime() float64 { return d.Ms }

// ToISOString implements Date.prototype.toISOString.
func (d *Date) ToISOString() string {
	t := time.UnixMilli(int64(d.Ms)).UTC()
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03dZ",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6)
}

func (d *Date) getUTC() time.Time { return time.UnixMilli(int64(d.Ms)).UTC() }

// GetFullYear/GetMonth/GetDate/GetHours/GetMinutes/GetSeconds read the
// UTC components (the virtual environment has no local timezone).
func (d *Date) GetFullYear() float64 { return float64(d.getUTC().Year()) }
func (d *Date) GetMonth() float64    { return float64(int(d.getUTC().Month()) - 1) }
func (d *Date) GetDate() float64     { return float64(d.getUTC().Day()) }
func (d *Date) GetHours() float64    { return float64(d.getUTC().Hour()) }
func (d *Date) GetMinutes() float64  { return float64(d.getUTC().Minute()) }
func (d *Date) GetSeconds() float64  { return float64(d.getUTC().Second()) }

func (d *Date) String() string { return d.ToISOString() }
