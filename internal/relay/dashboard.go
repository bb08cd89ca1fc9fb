package relay

import (
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// DashboardHandler renders vote activity charts from the NDJSON log. Data is
// re-read per request; the log stays small enough that this beats cache
// bookkeeping.
func DashboardHandler(dataFile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := LoadRecords(dataFile)

		// 1. Voter leaderboard
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Top Voters"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)

		voterCounts := make(map[string]int)
		for _, rec := range records {
			voterCounts[rec.VoterID.String()]++
		}

		var pieItems []opts.PieData
		for voter, count := range voterCounts {
			pieItems = append(pieItems, opts.PieData{Name: voter, Value: count})
		}
		pie.AddSeries("Votes", pieItems)

		// 2. Vote volume over time
		bar := charts.NewBar()
		bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Votes per Hour"}))

		hourCounts := make(map[string]int)
		for _, rec := range records {
			hourCounts[rec.ReceivedAt.Format("2006-01-02 15:00")]++
		}

		hours := make([]string, 0, len(hourCounts))
		for hour := range hourCounts {
			hours = append(hours, hour)
		}
		sort.Strings(hours)

		var barY []opts.BarData
		for _, hour := range hours {
			barY = append(barY, opts.BarData{Value: hourCounts[hour]})
		}
		bar.SetXAxis(hours).AddSeries("Votes", barY)

		pie.Render(w)
		bar.Render(w)
	}
}
