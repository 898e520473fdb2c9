package page

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/api/metrics"
	"github.com/99minutos/auth-portal/internal/core/domain"
	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/ports"
	"github.com/99minutos/auth-portal/internal/core/session"
)

type DashboardView struct {
	Identity
	Loading       bool
	Products      []domain.Product
	ProductsError string
}

// DashboardController drives the dashboard page.
type DashboardController struct {
	protectedPage
	products ports.ProductAPI

	productsMu sync.Mutex
	// gen identifies the current mount's load; older loads are discarded.
	gen     uint64
	loading bool
	list    []domain.Product
	listErr string
}

func NewDashboardController(store *session.Store, g *guard.Guard, nav ports.Navigator, products ports.ProductAPI, log zerolog.Logger) *DashboardController {
	c := &DashboardController{products: products}
	c.setup(store, g, nav, guard.PageDashboard, guard.PathDashboard, log)
	return c
}

// Mount runs the guard and, when the page may render, starts loading the
// product list. The returned task is nil when the guard redirected.
func (c *DashboardController) Mount(ctx context.Context) *Task {
	if !c.mount() {
		return nil
	}

	c.productsMu.Lock()
	c.gen++
	gen := c.gen
	c.loading, c.list, c.listErr = true, nil, ""
	c.productsMu.Unlock()

	return startTask(ctx, func(ctx context.Context) (err error) {
		var list []domain.Product
		defer func() {
			c.productsMu.Lock()
			defer c.productsMu.Unlock()
			if gen != c.gen {
				return
			}
			c.loading = false
			if err != nil {
				c.listErr = domain.MessageOf(err, MsgProductsFailed)
			} else {
				c.list = list
			}
		}()

		list, err = c.products.GetProducts(ctx)
		if err != nil {
			metrics.ProductFetchTotal.WithLabelValues("error").Inc()
			c.log.Warn().Err(err).Msg("product list failed")
			return err
		}
		metrics.ProductFetchTotal.WithLabelValues("success").Inc()
		return nil
	})
}

func (c *DashboardController) Unmount() { c.unmount() }

// Logout ends the session and navigates to the login page, replacing history.
func (c *DashboardController) Logout() { c.logout() }

func (c *DashboardController) View() DashboardView {
	v := DashboardView{Identity: c.currentIdentity()}
	c.productsMu.Lock()
	defer c.productsMu.Unlock()
	v.Loading = c.loading
	v.Products = append([]domain.Product(nil), c.list...)
	v.ProductsError = c.listErr
	return v
}
