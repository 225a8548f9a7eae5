package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
)

type reviewApi struct {
	svc *application.ReviewService
}

func registerReviewAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *application.ReviewService,
	notifyLimit echo.MiddlewareFunc,
) {
	api := reviewApi{svc: svc}

	admin := append(append([]echo.MiddlewareFunc{}, authed...), adminMiddleware())

	ag := g.Group("/admin", admin...)
	ag.GET("/applications", api.query)
	ag.GET("/applications/:id", api.retrieve)
	ag.PUT("/applications/:id/status", api.transition)
	ag.GET("/stats", api.stats)

	ng := g.Group("/notifications", admin...)
	ng.POST("/status", api.notify, notifyLimit)
}

// Handlers

func (api *reviewApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var filter application.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errBadRequestBody
	}

	list, err := api.svc.List(ctx.Request().Context(), claims.Subject, filter)
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	if list.Applications == nil {
		list.Applications = []application.Detail{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *reviewApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting application")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *reviewApi) transition(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data TransitionRequest
	if err := ctx.Bind(&data); err != nil {
		return errBadRequestBody
	}

	res, err := api.svc.Transition(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Status, data.Remarks)
	if err != nil {
		return errors.Wrap(err, "updating status")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reviewApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.Stats(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting applications")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *reviewApi) notify(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var notice application.StatusNotice
	if err := ctx.Bind(&notice); err != nil {
		return errBadRequestBody
	}

	id, err := api.svc.Notify(ctx.Request().Context(), claims.Subject, notice)
	if err != nil {
		return errors.Wrap(err, "notifying applicant")
	}
	return ctx.JSON(http.StatusOK, NotifyResponse{ID: id})
}

type (
	TransitionRequest struct {
		Status  application.Status `json:"status"`
		Remarks string             `json:"remarks"`
	}

	NotifyResponse struct {
		ID string `json:"id"`
	}
)
