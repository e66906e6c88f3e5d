// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package analytics

import (
	"math/rand/v2"
	"time"

	"quillpress/internal/models"
)

// sampleSeed fixes the generator so a given window always renders the same
// placeholder chart.
const sampleSeed = 0x5eed

func sampleRand(from time.Time) *rand.Rand {
	return rand.New(rand.NewPCG(sampleSeed, uint64(from.Unix())))
}

// sampleViews fills a series with plausible placeholder traffic. Values stay
// within [100, 1100).
func sampleViews(from time.Time, days int) models.TimeSeries {
	r := sampleRand(from)
	series := models.TimeSeries{Source: models.SourceSample, Points: make([]models.DataPoint, 0, days)}
	for i := range days {
		series.Points = append(series.Points, models.DataPoint{
			Date:  from.AddDate(0, 0, i).Format(DateLayout),
			Views: 100 + r.Int64N(1000),
		})
	}
	return series
}

// sampleUserActivity fills a placeholder user activity series. New users
// stay within [0, 10) and active users within [20, 120).
func sampleUserActivity(from time.Time, days int) models.UserActivitySeries {
	r := sampleRand(from)
	series := models.UserActivitySeries{Source: models.SourceSample, Days: make([]models.UserActivity, 0, days)}
	for i := range days {
		series.Days = append(series.Days, models.UserActivity{
			Date:        from.AddDate(0, 0, i).Format(DateLayout),
			NewUsers:    r.IntN(10),
			ActiveUsers: 20 + r.IntN(100),
		})
	}
	return series
}
