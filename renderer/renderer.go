// Package renderer turns ledger state into markdown reports for the CLI.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

// Orders renders the order log report to a markdown string.
func Orders(r *OrdersReport) string {
	return renderTemplate("orders", "orders.md", nil, r)
}

// Portfolio renders the holdings-and-wallet report to a markdown string.
func Portfolio(r *PortfolioReport) string {
	partials := map[string]string{
		"portfolio_holdings": "portfolio_holdings.md",
		"portfolio_wallet":   "portfolio_wallet.md",
	}
	return renderTemplate("portfolio", "portfolio.md", partials, r)
}

// Wallet renders a single wallet summary to a markdown string.
func Wallet(r *WalletReport) string {
	return renderTemplate("wallet", "wallet.md", nil, r)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
