// SPDX-License-Identifier: GPL-3.0-or-later
package mailsift

import (
	"fmt"
	"time"
)

type ConfigFunc func(c *configuration) error

func SinceDate(since time.Time) ConfigFunc {
	return func(c *configuration) error {
		if since.IsZero() {
			return fmt.Errorf("SinceDate cannot be the zero time")
		}

		c.Since = since
		return nil
	}
}

func Concurrency(concurrency int) ConfigFunc {
	return func(c *configuration) error {
		if concurrency < 1 {
			return fmt.Errorf("Concurrency must be at least 1, got %d", concurrency)
		}

		c.Concurrency = concurrency
		return nil
	}
}

type configuration struct {
	Since       time.Time
	Concurrency int
}
