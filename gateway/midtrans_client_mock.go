package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/aditbap/eventhub-sub000/entity"
)

type MidtransMock struct {
	mock sync.Mutex

	NotConfigured bool
	Key           string

	// Transactions is the authoritative state returned by TransactionStatus.
	Transactions map[string]entity.GatewayTransaction
	Checkouts    map[string]entity.CheckoutRequest
	StatusChecks map[string]int

	CreateErr error
	StatusErr error
}

func (c *MidtransMock) Configured() bool {
	return !c.NotConfigured
}

func (c *MidtransMock) ServerKey() string {
	return c.Key
}

func (c *MidtransMock) SetTransaction(tx entity.GatewayTransaction) {
	c.mock.Lock()
	defer c.mock.Unlock()
	if c.Transactions == nil {
		c.Transactions = make(map[string]entity.GatewayTransaction)
	}

	c.Transactions[tx.OrderID] = tx
}

func (c *MidtransMock) CreateTransaction(ctx context.Context, request entity.CheckoutRequest) (entity.Checkout, error) {
	c.mock.Lock()
	defer c.mock.Unlock()
	if c.CreateErr != nil {
		return entity.Checkout{}, c.CreateErr
	}
	if c.Checkouts == nil {
		c.Checkouts = make(map[string]entity.CheckoutRequest)
	}

	c.Checkouts[request.OrderID] = request

	return entity.Checkout{Token: "snap-token-" + request.OrderID}, nil
}

func (c *MidtransMock) TransactionStatus(ctx context.Context, orderID string) (entity.GatewayTransaction, error) {
	c.mock.Lock()
	defer c.mock.Unlock()
	if c.StatusChecks == nil {
		c.StatusChecks = make(map[string]int)
	}
	c.StatusChecks[orderID]++

	if c.StatusErr != nil {
		return entity.GatewayTransaction{}, c.StatusErr
	}

	tx, ok := c.Transactions[orderID]
	if !ok {
		return entity.GatewayTransaction{}, &Error{StatusCode: 200, Messages: []string{fmt.Sprintf("404: transaction %s doesn't exist", orderID)}}
	}

	return tx, nil
}

func (c *MidtransMock) StatusCheckCount(orderID string) int {
	c.mock.Lock()
	defer c.mock.Unlock()

	return c.StatusChecks[orderID]
}

func (c *MidtransMock) Checkout(orderID string) (entity.CheckoutRequest, bool) {
	c.mock.Lock()
	defer c.mock.Unlock()

	request, ok := c.Checkouts[orderID]
	return request, ok
}
