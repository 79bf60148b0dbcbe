package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		panic(err)
	}
}

// force timezone to be campus-local because our servers may end up
// in other regions which will cause disturbances when manipulating
// dates based on <time.Time>.Year()/Month()/Day()/Hour()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// the academic year flips over in october, so dates before that
// belong to the year that started the previous october
func AcademicYear(now time.Time) int {
	if now.Month() >= time.October {
		return now.Year()
	}
	return now.Year() - 1
}
