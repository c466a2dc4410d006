package ledgerapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/validation"
	"github.com/talkincode/toughledger/internal/webserver"
)

// transactionBody never carries a user; the caller's session supplies it.
type transactionBody struct {
	Amount    int64           `json:"amount" validate:"ne=0"`
	Date      validation.Date `json:"date" validate:"required,notfuture"`
	ProductID string          `json:"productId" validate:"required,uuid"`
}

type (
	listTransactionsRequest  = validation.Request[validation.None, validation.PageQuery, validation.None]
	transactionIDRequest     = validation.Request[validation.IDParams, validation.None, validation.None]
	createTransactionRequest = validation.Request[validation.None, validation.None, transactionBody]
	updateTransactionRequest = validation.Request[validation.IDParams, validation.None, transactionBody]
)

func (h *handlers) registerTransactionRoutes(s *webserver.Server) {
	authn := webserver.RequireAuthentication(h.Sessions)

	s.ApiGET("/transactions", validation.Handle(h.Gate, h.listTransactions), authn)
	s.ApiGET("/transactions/:id", validation.Handle(h.Gate, h.getTransaction), authn)
	s.ApiPOST("/transactions", validation.Handle(h.Gate, h.createTransaction), authn)
	s.ApiPUT("/transactions/:id", validation.Handle(h.Gate, h.updateTransaction), authn)
	s.ApiDELETE("/transactions/:id", validation.Handle(h.Gate, h.deleteTransaction), authn)
}

func transactionInput(c echo.Context, body transactionBody) (domain.TransactionInput, error) {
	session, ok := webserver.SessionFrom(c)
	if !ok {
		return domain.TransactionInput{}, apperr.NewUnauthorized("You need to be signed in", nil)
	}
	return domain.TransactionInput{
		Amount:    body.Amount,
		Date:      body.Date.Time,
		UserID:    session.UserID,
		ProductID: body.ProductID,
	}, nil
}

// @Summary list transactions by date
// @Tags Transactions
// @Security BearerAuth
// @Param limit query int false "page size (1-1000), requires offset"
// @Param offset query int false "rows to skip, requires limit"
// @Success 200 {object} domain.Page[domain.Transaction]
// @Router /api/transactions [get]
func (h *handlers) listTransactions(c echo.Context, req *listTransactionsRequest) error {
	page, err := h.Transactions.GetAll(c.Request().Context(), req.Query.Window())
	if err != nil {
		return err
	}
	return ok(c, page)
}

// @Summary get a transaction
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} domain.Transaction
// @Router /api/transactions/{id} [get]
func (h *handlers) getTransaction(c echo.Context, req *transactionIDRequest) error {
	transaction, err := h.Transactions.GetByID(c.Request().Context(), req.Params.ID)
	if err != nil {
		return err
	}
	return ok(c, transaction)
}

// @Summary record a transaction for the caller
// @Tags Transactions
// @Security BearerAuth
// @Param body body transactionBody true "transaction"
// @Success 201 {object} domain.Transaction
// @Router /api/transactions [post]
func (h *handlers) createTransaction(c echo.Context, req *createTransactionRequest) error {
	in, err := transactionInput(c, req.Body)
	if err != nil {
		return err
	}
	transaction, err := h.Transactions.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return created(c, transaction)
}

// @Summary update a transaction
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param body body transactionBody true "transaction"
// @Success 200 {object} domain.Transaction
// @Router /api/transactions/{id} [put]
func (h *handlers) updateTransaction(c echo.Context, req *updateTransactionRequest) error {
	in, err := transactionInput(c, req.Body)
	if err != nil {
		return err
	}
	transaction, err := h.Transactions.UpdateByID(c.Request().Context(), req.Params.ID, in)
	if err != nil {
		return err
	}
	return ok(c, transaction)
}

// @Summary delete a transaction
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Router /api/transactions/{id} [delete]
func (h *handlers) deleteTransaction(c echo.Context, req *transactionIDRequest) error {
	if err := h.Transactions.DeleteByID(c.Request().Context(), req.Params.ID); err != nil {
		return err
	}
	return noContent(c)
}
