package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core/stats"
)

var statsKeepAlive = 30 * time.Second // mockable

type statsApi struct {
	agg *stats.Aggregator
}

func registerStatsAPI(g *echo.Group, authed []echo.MiddlewareFunc, agg *stats.Aggregator) {
	api := statsApi{agg: agg}

	sg := g.Group("/stats", authed...)
	sg.GET("", api.retrieve)
	sg.GET("/live", api.live)
	sg.POST("/refresh", api.refresh, adminMiddleware())
}

func (api *statsApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.agg.Summary())
}

func (api *statsApi) refresh(ctx echo.Context) error {
	if err := api.agg.Refetch(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "refreshing stats")
	}
	return ctx.JSON(http.StatusOK, api.agg.Summary())
}

// live streams a "stats" event with the current summary, then one per change.
func (api *statsApi) live(ctx echo.Context) error {
	summaries, unsubscribe := api.agg.Subscribe()
	defer unsubscribe()

	res := openEventStream(ctx)
	keepAlive := time.NewTicker(statsKeepAlive)
	defer keepAlive.Stop()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case sum, ok := <-summaries:
			if !ok { // aggregator stopped
				return nil
			}
			data, err := json.Marshal(sum)
			if err != nil {
				return errors.Wrap(err, "encoding stats")
			}
			if _, err := fmt.Fprintf(res, "event: stats\ndata: %s\n\n", data); err != nil {
				return nil
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
		}
		res.Flush()
	}
}
