package fs

import "time"

// Date is the on-disk AmigaDOS date triple: days since 1978-01-01,
// minutes since midnight, and ticks (1/50th seconds) since the start of
// that minute (§4.3.1).
type Date struct {
	Days  int32
	Mins  int32
	Ticks int32
}

// amigaEpochOffset is the number of seconds between the POSIX epoch
// (1970-01-01) and the AmigaDOS epoch (1978-01-01): (8*365+2)*86400.
const amigaEpochOffset = int64(8*365+2) * 86400

// ToTime converts an AmigaDOS date to a POSIX time.
func (d Date) ToTime() time.Time {
	secs := int64(d.Days)*86400 + int64(d.Mins)*60 + int64(d.Ticks)/50
	return time.Unix(amigaEpochOffset+secs, 0).UTC()
}

// DateFromTime converts a POSIX time to an AmigaDOS date triple.
func DateFromTime(t time.Time) Date {
	secs := t.UTC().Unix() - amigaEpochOffset
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	rem := secs % 86400
	mins := rem / 60
	ticksRem := rem % 60
	return Date{
		Days:  int32(days),
		Mins:  int32(mins),
		Ticks: int32(ticksRem * 50),
	}
}

func getDate(b []byte, w int) Date {
	return Date{
		Days:  getWordSigned(b, w),
		Mins:  getWordSigned(b, w+1),
		Ticks: getWordSigned(b, w+2),
	}
}

func setDate(b []byte, w int, d Date) {
	setWordSigned(b, w, d.Days)
	setWordSigned(b, w+1, d.Mins)
	setWordSigned(b, w+2, d.Ticks)
}
