// Command storefront is an interactive shell over the commerce session
// engine: browse the catalog, manage the cart, log in, and submit orders.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/account"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/api"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/credential"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-client-go/internal/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	kv, cleanup, err := openStateStore(cfg, logger)
	if err != nil {
		logger.Fatal("open state store", zap.Error(err))
	}
	defer cleanup()

	creds := credential.NewStore(kv)
	sessions := session.NewManager(creds)
	defer sessions.Close()

	gateway, err := api.NewGateway(cfg.API.BaseURL, cfg.API.Timeout, creds, logger)
	if err != nil {
		logger.Fatal("build gateway", zap.Error(err))
	}

	carts := cart.NewMachine(kv)
	if err := carts.Hydrate(); err != nil {
		logger.Fatal("hydrate cart", zap.Error(err))
	}

	app := &shell{
		catalogs: catalog.NewEngine(gateway),
		carts:    carts,
		orders:   checkout.NewWorkflow(carts, gateway, logger),
		accounts: account.NewService(gateway, sessions, forms.NewValidator()),
		sessions: sessions,
		in:       bufio.NewScanner(os.Stdin),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.run(ctx)
}

func openStateStore(cfg config.Config, logger *zap.Logger) (state.Store, func(), error) {
	if cfg.State.PostgresDSN != "" {
		kv, err := state.OpenPostgres(cfg.State.PostgresDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	}

	var bc notify.Broadcaster
	if cfg.State.AMQPURL != "" {
		rabbit, err := notify.NewRabbit(cfg.State.AMQPURL, logger)
		if err != nil {
			return nil, nil, err
		}
		bc = rabbit
	}

	kv, err := state.NewFile(cfg.State.Path, bc)
	if err != nil {
		if bc != nil {
			_ = bc.Close()
		}
		return nil, nil, err
	}
	return kv, func() {
		_ = kv.Close()
		if bc != nil {
			_ = bc.Close()
		}
	}, nil
}

type shell struct {
	catalogs *catalog.Engine
	carts    *cart.Machine
	orders   *checkout.Workflow
	accounts *account.Service
	sessions *session.Manager
	in       *bufio.Scanner
}

func (s *shell) run(ctx context.Context) {
	s.catalogs.Refresh(ctx)
	s.showCatalog()

	for {
		fmt.Print("> ")
		line, ok := s.readLine(ctx)
		if !ok {
			fmt.Println()
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			s.showHelp()
		case "list":
			s.catalogs.Refresh(ctx)
			s.showCatalog()
		case "page":
			s.withInt(args, func(n int) {
				s.catalogs.SetPage(ctx, n)
				s.showCatalog()
			})
		case "sort":
			if len(args) != 1 {
				fmt.Println("usage: sort <field>")
				continue
			}
			// Back to the first page; the current page may not exist
			// under the new order.
			s.catalogs.SetPage(ctx, 0)
			s.catalogs.SetSort(ctx, args[0])
			s.showCatalog()
		case "dir":
			if len(args) != 1 {
				fmt.Println("usage: dir <asc|desc>")
				continue
			}
			s.catalogs.SetPage(ctx, 0)
			s.catalogs.SetDirection(ctx, args[0])
			s.showCatalog()
		case "detail":
			s.withInt(args, func(n int) { s.showDetail(ctx, int64(n)) })
		case "add":
			s.withInt(args, func(n int) { s.addToCart(int64(n)) })
		case "rm":
			s.withInt(args, func(n int) { s.dispatch(cart.Remove{ProductID: int64(n)}) })
		case "inc":
			s.withInt(args, func(n int) { s.dispatch(cart.Increase{ProductID: int64(n)}) })
		case "dec":
			s.withInt(args, func(n int) { s.dispatch(cart.Decrease{ProductID: int64(n)}) })
		case "clear":
			s.dispatch(cart.Clear{})
		case "cart":
			s.showCart()
		case "login":
			s.login(ctx)
		case "signup":
			s.signup(ctx)
		case "register":
			s.registerProduct(ctx)
		case "logout":
			if err := s.accounts.Logout(ctx); err != nil {
				fmt.Printf("logout: %v\n", err)
			}
			fmt.Println("logged out")
		case "orders":
			s.showOrders(ctx)
		case "checkout":
			s.checkout(ctx)
		case "whoami":
			if s.sessions.IsAuthenticated() {
				fmt.Println("authenticated")
			} else {
				fmt.Println("not authenticated")
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q, try help\n", cmd)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *shell) readLine(ctx context.Context) (string, bool) {
	type result struct {
		line string
		ok   bool
	}
	ch := make(chan result, 1)
	go func() {
		if !s.in.Scan() {
			ch <- result{ok: false}
			return
		}
		ch <- result{line: s.in.Text(), ok: true}
	}()

	select {
	case <-ctx.Done():
		return "", false
	case r := <-ch:
		return r.line, r.ok
	}
}

func (s *shell) withInt(args []string, fn func(int)) {
	if len(args) != 1 {
		fmt.Println("expected one numeric argument")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("not a number: %q\n", args[0])
		return
	}
	fn(n)
}

func (s *shell) showHelp() {
	fmt.Println(`commands:
  list                 show the current catalog page
  page <n>             jump to page n
  sort <field>         sort by field (e.g. price, name)
  dir <asc|desc>       sort direction
  detail <product id>  show one product
  add <product id>     add a product to the cart
  rm|inc|dec <id>      remove / increase / decrease a cart line
  cart                 show the cart
  clear                empty the cart
  login | signup | logout
  register             put a new product up for sale (admin)
  orders               show order history
  checkout             submit the cart as an order
  whoami               show session state
  quit`)
}

func (s *shell) showCatalog() {
	if err := s.catalogs.Err(); err != nil {
		fmt.Printf("catalog unavailable: %v (showing last known page)\n", err)
	}
	page := s.catalogs.Current()
	for _, p := range page.Items {
		status := "available"
		if !p.Status || p.Amount == 0 {
			status = "unavailable"
		}
		fmt.Printf("  [%d] %-30s %10s  (%s)\n", p.ProductID, p.Name, p.Price.StringFixed(0), status)
	}
	window := catalog.PageWindow(page.CurrentPage, page.TotalPages)
	fmt.Printf("page %d/%d  %v  prev=%v next=%v\n",
		page.CurrentPage, page.TotalPages, window, page.HasPrevious, page.HasNext)
}

func (s *shell) showDetail(ctx context.Context, id int64) {
	detail, err := s.catalogs.Detail(ctx, id)
	if err != nil {
		fmt.Printf("product %d: %v\n", id, err)
		return
	}
	fmt.Printf("%s\n%s\nprice %s, stock %d\ncreated %s, modified %s\n",
		detail.Name, detail.Description, detail.Price.StringFixed(0),
		detail.Amount, detail.CreatedDate, detail.ModifiedDate)
}

func (s *shell) addToCart(id int64) {
	for _, p := range s.catalogs.Current().Items {
		if p.ProductID == id {
			s.dispatch(cart.Add{Line: cart.NewLine(p.ProductID, p.Name, p.Price, 1)})
			return
		}
	}
	fmt.Printf("product %d is not on the current page; run list first\n", id)
}

func (s *shell) dispatch(a cart.Action) {
	if err := s.carts.Dispatch(a); err != nil {
		fmt.Printf("cart: %v\n", err)
		return
	}
	s.showCart()
}

func (s *shell) showCart() {
	lines := s.carts.Lines()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range lines {
		fmt.Printf("  [%d] %-30s %s x %d = %s\n",
			line.ProductID, line.Name, line.UnitPrice.StringFixed(0),
			line.Quantity, line.LineTotal.StringFixed(0))
	}
	fmt.Printf("total: %s for %d items\n", s.carts.TotalAmount().StringFixed(0), s.carts.TotalItems())
}

func (s *shell) prompt(ctx context.Context, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := s.readLine(ctx)
	return strings.TrimSpace(line)
}

func (s *shell) login(ctx context.Context) {
	form := forms.Login{
		Email:    s.prompt(ctx, "email"),
		Password: s.prompt(ctx, "password"),
	}
	msg, err := s.accounts.Login(ctx, form)
	if err != nil {
		printFailure(err)
		return
	}
	fmt.Println(msg)
}

func (s *shell) signup(ctx context.Context) {
	form := forms.Signup{
		Name:            s.prompt(ctx, "name"),
		Email:           s.prompt(ctx, "email"),
		Password:        s.prompt(ctx, "password"),
		ConfirmPassword: s.prompt(ctx, "confirm password"),
		Address:         s.prompt(ctx, "address"),
		DetailAddress:   s.prompt(ctx, "detail address"),
		Phone:           s.prompt(ctx, "phone"),
	}
	msg, err := s.accounts.Signup(ctx, form)
	if err != nil {
		printFailure(err)
		return
	}
	fmt.Println(msg)
}

func (s *shell) registerProduct(ctx context.Context) {
	form := forms.NewProduct{
		Name:        s.prompt(ctx, "name"),
		Description: s.prompt(ctx, "description"),
	}
	if raw := s.prompt(ctx, "price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Println("price must be a number")
			return
		}
		form.Price = price
	}
	if raw := s.prompt(ctx, "amount"); raw != "" {
		amount, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Println("amount must be a number")
			return
		}
		form.Amount = amount
	}
	form.Status = !strings.EqualFold(s.prompt(ctx, "available? [Y/n]"), "n")

	msg, err := s.accounts.RegisterProduct(ctx, form)
	if err != nil {
		printFailure(err)
		return
	}
	fmt.Println(msg)
}

func (s *shell) showOrders(ctx context.Context) {
	orders, err := s.accounts.Orders(ctx)
	if err != nil {
		printFailure(err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("no orders found")
		return
	}
	for _, o := range orders {
		fmt.Printf("order %s  %s  %s  %d items  %s\n",
			o.OrderNumber, o.OrderStatus, o.CreatedDate, o.TotalAmount, o.TotalPrice.StringFixed(0))
		for _, item := range o.OrderList {
			fmt.Printf("    %-30s %s x %d = %s\n",
				item.Name, item.Price.StringFixed(0), item.Amount, item.TotalPrice.StringFixed(0))
		}
	}
}

func (s *shell) checkout(ctx context.Context) {
	summary, err := s.orders.Begin()
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			fmt.Println("add something to the cart first")
			s.showCatalog()
			return
		}
		fmt.Printf("checkout: %v\n", err)
		return
	}

	fmt.Printf("the total is %s for %d items. submit the order? [y/N] ",
		summary.TotalAmount.StringFixed(0), summary.TotalItems)
	answer, _ := s.readLine(ctx)
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		_ = s.orders.Cancel()
		fmt.Println("order cancelled")
		return
	}

	msg, err := s.orders.Confirm(ctx)
	if err != nil {
		printFailure(err)
		return
	}
	fmt.Println(msg)
	s.showOrders(ctx)
}

func printFailure(err error) {
	var fieldErrs *forms.Error
	if errors.As(err, &fieldErrs) {
		for field, msg := range fieldErrs.Fields {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		return
	}
	fmt.Println(err)
}
