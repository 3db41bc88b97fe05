package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kommand-console/internal/activity"
	"kommand-console/internal/router"
	"kommand-console/internal/service"
	"kommand-console/internal/transport"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
)

var errUsage = errors.New("usage")

// Prompter reads one line of user input
type Prompter interface {
	Prompt(prompt string) (string, error)
	Secret(prompt string) (string, error)
}

type readlinePrompter struct {
	rl *readline.Instance
}

// NewReadlinePrompter creates a terminal prompter with persistent history
func NewReadlinePrompter(historyFile string) (Prompter, io.Closer, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &readlinePrompter{rl: rl}, rl, nil
}

func (p *readlinePrompter) Prompt(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	return p.rl.Readline()
}

func (p *readlinePrompter) Secret(prompt string) (string, error) {
	b, err := p.rl.ReadPassword(prompt)
	return string(b), err
}

// REPL is the interactive front end of the console
type REPL struct {
	app   *App
	in    Prompter
	out   io.Writer
	limit int
	seen  activity.Entry
}

// NewREPL creates a REPL that reads from in and renders to out
func NewREPL(app *App, in Prompter, out io.Writer, displayLimit int) *REPL {
	if displayLimit <= 0 {
		displayLimit = activity.DefaultDisplayLimit
	}
	r := &REPL{app: app, in: in, out: out, limit: displayLimit}
	app.SetConfirmer(r.confirm)
	return r
}

// Run reads and executes commands until quit, EOF or interrupt
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "KommandAI marketplace console. Type 'help' for commands.")
	r.flushActivity()
	r.show()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.in.Prompt(r.prompt())
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}

		quit, err := r.Execute(ctx, line)
		r.flushActivity()
		if err != nil {
			r.printError(err)
		}
		if quit {
			return nil
		}
	}
}

func (r *REPL) prompt() string {
	state := r.app.State()
	switch state.Mode {
	case router.ModeCustomer:
		switch state.Stage {
		case router.StageShopsInCategory:
			return fmt.Sprintf("category:%d> ", state.CategoryID)
		case router.StageProductsInShop:
			return fmt.Sprintf("shop:%d> ", state.ShopID)
		}
		return "shop> "
	case router.ModeShopAdmin, router.ModeSuperAdmin:
		return fmt.Sprintf("%s> ", state.Tab)
	default:
		return "login> "
	}
}

// Execute runs one command line. It reports whether the console should exit.
func (r *REPL) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		r.help()
		return false, nil
	case "status":
		renderStatus(r.out, r.app.Session(), r.app.Connected())
		return false, nil
	case "log":
		n := r.limit
		if len(args) == 1 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				n = v
			}
		}
		renderActivity(r.out, r.app.Activity().Recent(n))
		return false, nil
	case "show":
		r.show()
		return false, nil
	}

	if r.app.Session() == nil {
		return false, r.unauthenticated(ctx, cmd, args)
	}

	switch cmd {
	case "logout":
		return false, r.then(r.app.Logout(ctx))
	case "refresh":
		return false, r.then(r.app.Resync(ctx))
	case "do":
		return false, r.app.Submit(ctx, rest)
	case "tab":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: tab <%s>", errUsage, joinTabs(r.app.State().Mode))
		}
		return false, r.then(r.app.SetTab(router.Tab(strings.ToLower(args[0]))))
	}

	switch r.app.State().Mode {
	case router.ModeCustomer:
		return false, r.customer(ctx, cmd, args, rest)
	case router.ModeShopAdmin:
		return false, r.shopAdmin(ctx, cmd, args)
	case router.ModeSuperAdmin:
		return false, r.superAdmin(ctx, cmd, args)
	}
	return false, fmt.Errorf("unknown command %q", cmd)
}

func (r *REPL) unauthenticated(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		email := ""
		if len(args) > 0 {
			email = args[0]
		} else {
			var err error
			if email, err = r.in.Prompt("Email: "); err != nil {
				return err
			}
		}
		password, err := r.in.Secret("Password: ")
		if err != nil {
			return err
		}
		return r.then(r.app.Login(ctx, email, password))

	case "register":
		var req transport.RegisterRequest
		for _, f := range []struct {
			label string
			value *string
		}{
			{"Name: ", &req.Name},
			{"Email: ", &req.Email},
			{"Phone: ", &req.Phone},
		} {
			v, err := r.in.Prompt(f.label)
			if err != nil {
				return err
			}
			*f.value = strings.TrimSpace(v)
		}
		password, err := r.in.Secret("Password: ")
		if err != nil {
			return err
		}
		req.Password = password
		return r.then(r.app.Register(ctx, req))
	}
	return fmt.Errorf("sign in first: login <email> | register")
}

func (r *REPL) customer(ctx context.Context, cmd string, args []string, rest string) error {
	switch cmd {
	case "open", "category":
		id, err := parseID(args, "open <category-id>")
		if err != nil {
			return err
		}
		return r.then(r.app.SelectCategory(ctx, id))
	case "shop":
		id, err := parseID(args, "shop <shop-id>")
		if err != nil {
			return err
		}
		return r.then(r.app.SelectShop(ctx, id))
	case "search":
		return r.then(r.app.Search(ctx, rest))
	case "back":
		return r.then(r.app.Back(ctx))
	case "add":
		id, err := parseID(args, "add <product-id>")
		if err != nil {
			return err
		}
		return r.app.AddToCart(id)
	case "remove":
		id, err := parseID(args, "remove <product-id>")
		if err != nil {
			return err
		}
		if !r.app.RemoveFromCart(id) {
			return fmt.Errorf("product %d is not in the cart", id)
		}
		renderCart(r.out, r.app.Cart())
		return nil
	case "cart":
		renderCart(r.out, r.app.Cart())
		return nil
	case "checkout":
		return r.app.Cart().Checkout()
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (r *REPL) shopAdmin(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "new":
		form, err := r.productForm(service.ProductForm{MinStockLevel: "5", Unit: "piece"})
		if err != nil {
			return err
		}
		return r.then(r.app.Catalog().Create(ctx, form))
	case "edit":
		id, err := parseID(args, "edit <product-id>")
		if err != nil {
			return err
		}
		product, ok := findProduct(r.app.Snapshot().AdminProducts, id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrProductNotListed, id)
		}
		form, err := r.productForm(service.FormFromProduct(product))
		if err != nil {
			return err
		}
		return r.then(r.app.Catalog().Update(ctx, id, form))
	case "delete":
		id, err := parseID(args, "delete <product-id>")
		if err != nil {
			return err
		}
		return r.then(r.app.Catalog().Delete(ctx, id))
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (r *REPL) superAdmin(ctx context.Context, cmd string, args []string) error {
	actions := map[string]func(context.Context, int64) error{
		"verify":   r.app.Platform().Verify,
		"suspend":  r.app.Platform().Suspend,
		"activate": r.app.Platform().Activate,
	}
	action, ok := actions[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", cmd)
	}
	id, err := parseID(args, cmd+" <shop-id>")
	if err != nil {
		return err
	}
	return r.then(action(ctx, id))
}

// productForm walks the editor fields; an empty answer keeps the shown value
func (r *REPL) productForm(form service.ProductForm) (service.ProductForm, error) {
	for _, f := range []struct {
		label string
		value *string
	}{
		{"Name", &form.Name},
		{"Price", &form.Price},
		{"Cost price", &form.CostPrice},
		{"Compare-at price", &form.CompareAtPrice},
		{"Quantity", &form.Quantity},
		{"Min stock level", &form.MinStockLevel},
		{"Category ID", &form.CategoryID},
		{"Brand", &form.Brand},
		{"SKU", &form.SKU},
		{"Description", &form.Description},
		{"Tags", &form.Tags},
		{"Unit", &form.Unit},
	} {
		label := f.label + ": "
		if *f.value != "" {
			label = fmt.Sprintf("%s [%s]: ", f.label, *f.value)
		}
		v, err := r.in.Prompt(label)
		if err != nil {
			return form, err
		}
		if v = strings.TrimSpace(v); v != "" {
			*f.value = v
		}
	}
	form.IsFeatured = r.confirm("Featured?")

	if margin, ok := service.ProfitMargin(form); ok {
		fmt.Fprintf(r.out, "Profit margin: %s%%\n", margin.StringFixed(1))
	}
	return form, nil
}

func (r *REPL) confirm(prompt string) bool {
	answer, err := r.in.Prompt(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// then renders the current view after a successful command
func (r *REPL) then(err error) error {
	if err != nil {
		return err
	}
	r.show()
	return nil
}

func (r *REPL) show() {
	state := r.app.State()
	snap := r.app.Snapshot()

	switch state.Mode {
	case router.ModeCustomer:
		switch state.Stage {
		case router.StageCategories:
			renderShopCategories(r.out, snap.ShopCategories)
		case router.StageShopsInCategory:
			renderShops(r.out, snap.Shops)
		case router.StageProductsInShop:
			renderStorefront(r.out, service.FilterProducts(snap.ShopProducts, state.Search))
		}
		if !r.app.Cart().Empty() {
			fmt.Fprintf(r.out, "Cart (%d items) %s\n", r.app.Cart().Count(), money(r.app.Cart().Total()))
		}

	case router.ModeShopAdmin:
		switch state.Tab {
		case router.TabDashboard:
			renderDashboard(r.out, snap.Dashboard, snap.LowStock)
		case router.TabProducts:
			renderAdminProducts(r.out, snap.AdminProducts)
			renderCategories(r.out, snap.Categories)
		case router.TabOrders:
			renderOrders(r.out, snap.Orders)
		}

	case router.ModeSuperAdmin:
		switch state.Tab {
		case router.TabOverview:
			renderPlatformStats(r.out, snap.PlatformStats)
		case router.TabShops:
			renderPlatformShops(r.out, snap.PlatformShops)
		case router.TabUsers:
			renderUsers(r.out, snap.Users)
		case router.TabCategories:
			renderShopCategories(r.out, snap.ShopCategories)
		}

	default:
		renderShopCategories(r.out, snap.ShopCategories)
		fmt.Fprintln(r.out, "Sign in with: login <email> | register")
	}
}

// flushActivity prints entries added since the last flush, oldest first
func (r *REPL) flushActivity() {
	entries := r.app.Activity().Entries()
	var fresh []activity.Entry
	for _, e := range entries {
		if e == r.seen {
			break
		}
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return
	}
	r.seen = entries[0]
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	renderActivity(r.out, fresh)
}

func (r *REPL) printError(err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		fmt.Fprintln(r.out, text.FgRed.Sprint(authErr.Detail))
		return
	}
	fmt.Fprintln(r.out, text.FgRed.Sprint("Error: ")+err.Error())
}

func (r *REPL) help() {
	fmt.Fprint(r.out, `Commands:
  help | status | log [n] | show | quit
  login <email> | register
  logout | refresh | do <instruction>
Customer:
  open <category-id> | shop <shop-id> | search <text> | back
  add <product-id> | remove <product-id> | cart | checkout
Shop admin:
  tab dashboard|products|orders | new | edit <id> | delete <id>
Super admin:
  tab overview|shops|users|categories | verify <id> | suspend <id> | activate <id>
`)
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	return id, nil
}

func joinTabs(mode router.Mode) string {
	var names []string
	for _, tab := range router.Tabs(mode) {
		names = append(names, string(tab))
	}
	return strings.Join(names, "|")
}
