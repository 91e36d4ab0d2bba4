package http

import (
	"net"
	"net/http"
	"strings"

	"smartexpense/internal/core"
)

// trustedProxies defines networks that are trusted to set forwarding headers.
var trustedProxies = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic("invalid trusted proxy CIDR " + cidr)
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the first forwarded address when
// the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

type expenseRow struct {
	ID          string
	Date        string
	Description string
	Category    string
	Amount      string
}

type summaryView struct {
	Budget        string
	Income        string
	Total         string
	Remaining     string
	ProgressWidth string
	Color         string
}

type tableView struct {
	Month string
	Rows  []expenseRow
}

type pageView struct {
	tableView
	Summary     summaryView
	ServerVoice bool
}

func newTableView(month string, expenses []core.Expense) tableView {
	rows := make([]expenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, expenseRow{
			ID:          e.ID,
			Date:        e.Date.String(),
			Description: e.Description,
			Category:    e.Category,
			Amount:      e.Amount.String(),
		})
	}
	return tableView{Month: month, Rows: rows}
}

func newSummaryView(s core.Summary) summaryView {
	return summaryView{
		Budget:        s.Budget.String(),
		Income:        s.Income.String(),
		Total:         s.Total.String(),
		Remaining:     s.Remaining.String(),
		ProgressWidth: s.ProgressWidth(),
		Color:         s.Color,
	}
}
