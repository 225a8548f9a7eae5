package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
)

type profileApi struct {
	svc *profile.Service
}

func registerProfileAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *profile.Service) {
	api := profileApi{svc: svc}

	pg := g.Group("/profile", authed...)
	pg.GET("", api.retrieve)
	pg.PUT("", api.update)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	if p.Email == "" {
		p.Email = claims.Email
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data profile.PersonalInfo
	if err := ctx.Bind(&data); err != nil {
		return errBadRequestBody
	}

	p, err := api.svc.Save(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return ctx.JSON(http.StatusOK, p)
}
