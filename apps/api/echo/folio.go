package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kampus/backend/core/folio"
)

type folioApi struct {
	svc        *folio.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerFolioAPI(g *echo.Group, svc *folio.Service, validate *validator.Validate, translator ut.Translator) {
	api := folioApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	tg := g.Group("/transactions")
	tg.POST("", api.createTransaction)
	tg.GET("/:id", api.retrieveTransaction)

	eg := g.Group("/expenses")
	eg.POST("", api.createExpense)
	eg.GET("", api.queryExpenses)
	eg.GET("/:id", api.retrieveExpense)
}

// Handlers

func (api *folioApi) createTransaction(ctx echo.Context) error {
	var data folio.NewTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransaction")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	trx, err := api.svc.RecordTransaction(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, trx)
}

func (api *folioApi) retrieveTransaction(ctx echo.Context) error {
	trx, err := api.svc.GetTransaction(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trx)
}

func (api *folioApi) createExpense(ctx echo.Context) error {
	var data folio.NewExpense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExpense")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	exp, err := api.svc.RecordExpense(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, exp)
}

func (api *folioApi) retrieveExpense(ctx echo.Context) error {
	exp, err := api.svc.GetExpense(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, exp)
}

func (api *folioApi) queryExpenses(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	exps, err := api.svc.QueryExpenses(ctx.Request().Context(), bindExpenseFilter(ctx), ord.Orderings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, exps)
}
