/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Reporter renders the request metrics gathered during a run.
type Reporter interface {
	Summary() string
}

type retrievable interface {
	Avg() float64
	Min() float64
	Max() float64
}
type gettable interface {
	Get() float64
}

type reporter struct {
	*Metrics
}

func NewReporter(c *Metrics) Reporter {
	if c.supportsGetters {
		return &reporter{Metrics: c}
	}
	return &emptyReporter{}
}

const noValues = "No values can be retrieved. Change the provider type."

type emptyReporter struct{}

func (c *emptyReporter) Summary() string { return noValues }

func (c *reporter) Summary() string {
	b := strings.Builder{}

	sent := c.RequestsSent.(gettable).Get()
	if sent == 0 {
		return "No requests issued"
	}
	d := c.RequestDuration.(retrievable)
	b.WriteString(fmt.Sprintf("Total requests %d, average duration of the request %v\n",
		int(sent), seconds(d.Avg())))
	b.WriteString(fmt.Sprintf("Success ratio %.2f%%\n",
		c.RequestsSucceeded.(gettable).Get()/sent*100))
	b.WriteString(fmt.Sprintf("Minimum request took %v, maximum %v",
		seconds(d.Min()), seconds(d.Max())))

	return b.String()
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
