package console

import (
	"fmt"
	"io"
	"strings"

	"kommand-console/internal/activity"
	"kommand-console/internal/cart"
	"kommand-console/internal/domain"
	"kommand-console/internal/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return money(d.Decimal)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func renderShopCategories(w io.Writer, categories []domain.ShopCategory) {
	t := newTable(w, "Shop categories")
	t.AppendHeader(table.Row{"ID", "", "Name", "Shops", "Description"})
	for _, c := range categories {
		t.AppendRow(table.Row{c.ID, c.Icon, c.Name, c.ShopCount, c.Description})
	}
	t.Render()
}

func renderShops(w io.Writer, shops []domain.Shop) {
	t := newTable(w, "Shops")
	t.AppendHeader(table.Row{"ID", "Name", "City", "Rating", "Verified", "Description"})
	for _, s := range shops {
		t.AppendRow(table.Row{s.ID, s.Name, s.City, fmt.Sprintf("%.1f", s.Rating), yesNo(s.IsVerified), s.Description})
	}
	t.Render()
}

func renderStorefront(w io.Writer, products []domain.Product) {
	t := newTable(w, "Products")
	t.AppendHeader(table.Row{"ID", "Name", "Brand", "Price", "Was", "Stock"})
	for _, p := range products {
		stock := fmt.Sprintf("%d %s", p.Quantity, p.Unit)
		if !p.InStock() {
			stock = text.FgRed.Sprint("out of stock")
		}
		t.AppendRow(table.Row{p.ID, p.Name, p.Brand, money(p.Price), nullMoney(p.CompareAtPrice), stock})
	}
	t.Render()
}

func renderCart(w io.Writer, c *cart.Cart) {
	t := newTable(w, fmt.Sprintf("Cart (%d items)", c.Count()))
	t.AppendHeader(table.Row{"ID", "Name", "Price", "Qty", "Subtotal"})
	for _, item := range c.Items() {
		t.AppendRow(table.Row{item.Product.ID, item.Product.Name, money(item.Product.Price), item.Qty, money(item.Subtotal())})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", money(c.Total())})
	t.Render()
}

func renderDashboard(w io.Writer, stats *domain.DashboardStats, lowStock []domain.Product) {
	if stats == nil {
		fmt.Fprintln(w, "Dashboard not loaded yet")
		return
	}
	t := newTable(w, "Dashboard")
	t.AppendRows([]table.Row{
		{"Revenue", money(stats.TotalRevenue)},
		{"Products", stats.TotalProducts},
		{"Orders", stats.TotalOrders},
		{"Pending orders", stats.PendingOrders},
		{"Low stock", stats.LowStockCount},
		{"Inventory value", money(stats.InventoryValue)},
	})
	t.Render()

	if len(lowStock) == 0 {
		return
	}
	low := newTable(w, "Low stock")
	low.AppendHeader(table.Row{"ID", "Name", "Qty", "Min"})
	for _, p := range lowStock {
		low.AppendRow(table.Row{p.ID, p.Name, p.Quantity, p.MinStockLevel})
	}
	low.Render()
}

func renderAdminProducts(w io.Writer, products []domain.Product) {
	t := newTable(w, "Products")
	t.AppendHeader(table.Row{"ID", "Name", "SKU", "Price", "Cost", "Margin", "Qty", "Active", "Featured"})
	for _, p := range products {
		margin := "-"
		if m, ok := service.ProfitMargin(service.FormFromProduct(p)); ok {
			margin = m.StringFixed(1) + "%"
		}
		t.AppendRow(table.Row{
			p.ID, p.Name, p.SKU, money(p.Price), nullMoney(p.CostPrice), margin,
			p.Quantity, yesNo(p.IsActive), yesNo(p.IsFeatured),
		})
	}
	t.Render()
}

func renderOrders(w io.Writer, orders []domain.Order) {
	t := newTable(w, "Orders")
	t.AppendHeader(table.Row{"ID", "Customer", "Product", "Qty", "Amount", "Status", "Date"})
	for _, o := range orders {
		date := ""
		if !o.CreatedAt.IsZero() {
			date = o.CreatedAt.Format(dateLayout)
		}
		t.AppendRow(table.Row{o.ID, o.CustomerName, o.ProductName, o.Quantity, money(o.TotalAmount), o.Status, date})
	}
	t.Render()
}

func renderCategories(w io.Writer, categories []domain.Category) {
	t := newTable(w, "Categories")
	t.AppendHeader(table.Row{"ID", "Name"})
	for _, c := range categories {
		t.AppendRow(table.Row{c.ID, c.Name})
	}
	t.Render()
}

func renderPlatformStats(w io.Writer, stats *domain.PlatformStats) {
	if stats == nil {
		fmt.Fprintln(w, "Platform stats not loaded yet")
		return
	}
	t := newTable(w, "Platform overview")
	t.AppendRows([]table.Row{
		{"Shops", stats.TotalShops},
		{"Verified shops", stats.VerifiedShops},
		{"Shop owners", stats.TotalShopOwners},
		{"Customers", stats.TotalCustomers},
		{"Users", stats.TotalUsers},
		{"Platform revenue", money(stats.PlatformRevenue)},
	})
	t.Render()
}

func renderPlatformShops(w io.Writer, shops []domain.Shop) {
	t := newTable(w, "All shops")
	t.AppendHeader(table.Row{"ID", "Name", "Owner", "City", "Orders", "Revenue", "Verified", "Active"})
	for _, s := range shops {
		t.AppendRow(table.Row{
			s.ID, s.Name, s.OwnerEmail, s.City, s.TotalOrders, money(s.TotalRevenue),
			yesNo(s.IsVerified), yesNo(s.IsActive),
		})
	}
	t.Render()
}

func renderUsers(w io.Writer, users []domain.User) {
	t := newTable(w, "Users")
	t.AppendHeader(table.Row{"ID", "Name", "Email", "Phone", "Role", "Active", "Joined"})
	for _, u := range users {
		joined := ""
		if !u.CreatedAt.IsZero() {
			joined = u.CreatedAt.Format(dateLayout)
		}
		t.AppendRow(table.Row{u.ID, u.Name, u.Email, u.Phone, string(u.Role), yesNo(u.IsActive), joined})
	}
	t.Render()
}

var severityColors = map[activity.Severity]text.Colors{
	activity.SeverityInfo:    {text.FgCyan},
	activity.SeveritySuccess: {text.FgGreen},
	activity.SeverityError:   {text.FgRed},
}

func renderActivity(w io.Writer, entries []activity.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No activity yet")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n", e.Time.Format("15:04:05"), severityColors[e.Severity].Sprint(e.Message))
	}
}

func renderStatus(w io.Writer, session *domain.Session, connected bool) {
	indicator := text.FgRed.Sprint("○ offline")
	if connected {
		indicator = text.FgGreen.Sprint("● connected")
	}

	who := "not signed in"
	if session != nil {
		who = fmt.Sprintf("%s (%s)", session.Name, strings.ReplaceAll(string(session.Role), "_", " "))
		if session.ShopID != nil {
			who += fmt.Sprintf(" shop #%d", *session.ShopID)
		}
	}
	fmt.Fprintf(w, "%s  %s\n", indicator, who)
}
