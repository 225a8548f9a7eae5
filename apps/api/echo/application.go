package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core/application"
)

type applicationApi struct {
	svc    *application.Service
	review *application.ReviewService
}

func registerApplicationAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *application.Service,
	review *application.ReviewService,
) {
	api := applicationApi{svc: svc, review: review}

	ag := g.Group("/applications", authed...)
	ag.GET("", api.query)
	ag.GET("/status", api.lookup)
	ag.GET("/draft", api.resume)
	ag.POST("/draft", api.saveDraft)
	ag.POST("/submit", api.submit)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/admit-card", api.admitCard)

	g.GET("/results", api.results, authed...)
	g.GET("/documents/:id/url", api.documentURL, authed...)
}

// Handlers

func (api *applicationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	details, err := api.svc.ListOwn(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	if details == nil {
		details = []application.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *applicationApi) results(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	details, err := api.svc.Results(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing results")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *applicationApi) lookup(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	app, err := api.svc.Lookup(ctx.Request().Context(), claims.Subject, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "looking up application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
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

func (api *applicationApi) admitCard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.AdmitCard(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting admit card")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *applicationApi) documentURL(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	url, err := api.review.DocumentURL(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "signing document url")
	}
	return ctx.JSON(http.StatusOK, DocumentURLResponse{URL: url})
}

func (api *applicationApi) resume(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	w, err := api.svc.Resume(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "resuming application")
	}
	return ctx.JSON(http.StatusOK, newWizardState(w))
}

func (api *applicationApi) saveDraft(ctx echo.Context) error {
	return api.save(ctx, false)
}

func (api *applicationApi) submit(ctx echo.Context) error {
	return api.save(ctx, true)
}

// save resumes the latest draft of the caller, applies the request and stores it.
// Submitting walks the wizard through every step first.
func (api *applicationApi) save(ctx echo.Context, submit bool) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data WizardRequest
	if err := data.Bind(ctx); err != nil {
		return err
	}
	defer data.Close()

	reqCtx := ctx.Request().Context()
	w, err := api.svc.Resume(reqCtx, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "resuming application")
	}
	data.Apply(w)

	var res application.SaveResult
	if submit {
		if err := w.Advance(application.StepReview); err != nil {
			return err
		}
		res, err = api.svc.Submit(reqCtx, claims.Subject, w)
	} else {
		res, err = api.svc.SaveDraft(reqCtx, claims.Subject, w)
	}
	if err != nil {
		return errors.Wrap(err, "saving application")
	}
	if res.Documents == nil {
		res.Documents = []application.Document{}
	}
	if res.UploadErrors == nil {
		res.UploadErrors = []application.UploadError{}
	}
	return ctx.JSON(http.StatusOK, res)
}

type DocumentURLResponse struct {
	URL string `json:"url"`
}
