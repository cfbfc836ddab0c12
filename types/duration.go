package types

import "time"

// Duration time.Duration wrapper
type Duration time.Duration

// UnmarshalYAML method Unmash duration from string
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}
