package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"balepos/internal/database"
	"balepos/internal/store"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DataSource is the slice of the store the assistant is allowed to read.
// It never writes; pricing and status changes stay with the humans.
type DataSource interface {
	BaleOverviews(ctx context.Context) ([]store.BaleOverview, error)
	SalesSummary(ctx context.Context, start, end time.Time) (*database.SalesSummary, error)
	ListCustomers(ctx context.Context) ([]store.CustomerView, error)
}

// RunAgent answers one question about the shop: bale ROI, remaining stock,
// suggested target prices, session revenue, who the top buyers are.
func RunAgent(ctx context.Context, userMessage, apiKey string, data DataSource) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")

	today := time.Now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant for a live-selling resale shop that buys wholesale bales and resells the items on stream.

	RULES:
	1. BALES: For anything about a bale (remaining items, ROI, whether it is profitable, what price to sell the rest at), call 'check_bales' and read the stats. The target_price field is the per-item price that recovers the bale's remaining capital.
	2. SALES: For revenue or order counts, call 'get_sales_report' with a date range.
	3. CUSTOMERS: For buyer questions (top spenders, VIPs, ticket balances), call 'check_customers'.
	4. You can only read. If asked to change a price or a status, explain where in the dashboard to do it.

	USER: %s`, today, userMessage)

	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_bales",
					Description: "Get every bale with its derived stats: sold count, revenue, remaining items, % of capital recovered, profitability, and the target per-item price for the remaining stock.",
				},
				{
					Name:        "get_sales_report",
					Description: "Get total sales revenue and order count for a date range.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
				{
					Name:        "check_customers",
					Description: "Get every customer with their computed total spent, order count, VIP flag and remaining VIP tickets.",
				},
			},
		},
	}

	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		funcCall, ok := part.(genai.FunctionCall)
		if !ok {
			continue
		}
		switch funcCall.Name {
		case "check_bales":
			return executeCheckBales(ctx, session, data)
		case "get_sales_report":
			return executeSalesReport(ctx, session, funcCall, data)
		case "check_customers":
			return executeCheckCustomers(ctx, session, data)
		}
	}

	return printResponse(resp), nil
}

func executeCheckBales(ctx context.Context, session *genai.ChatSession, data DataSource) (string, error) {
	overviews, err := data.BaleOverviews(ctx)
	if err != nil {
		return "", err
	}

	type simpleBale struct {
		Name         string  `json:"name"`
		Status       string  `json:"status"`
		Cost         float64 `json:"cost"`
		Sold         int     `json:"sold"`
		Remaining    int     `json:"remaining"`
		Revenue      float64 `json:"revenue"`
		RecoveredPct float64 `json:"recovered_pct"`
		Profitable   bool    `json:"profitable"`
		TargetPrice  float64 `json:"target_price"`
	}
	simpleList := make([]simpleBale, 0, len(overviews))
	for _, o := range overviews {
		simpleList = append(simpleList, simpleBale{
			Name:         o.Name,
			Status:       string(o.Status),
			Cost:         o.Cost,
			Sold:         o.Stats.SoldCount,
			Remaining:    o.Stats.Remaining,
			Revenue:      o.Stats.Revenue,
			RecoveredPct: o.Stats.Progress,
			Profitable:   o.Stats.IsProfitable,
			TargetPrice:  o.Stats.TargetPrice,
		})
	}
	jsonBytes, _ := json.Marshal(simpleList)

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "check_bales",
		Response: map[string]interface{}{"bales": string(jsonBytes)},
	})
	if err != nil {
		return "", err
	}
	return printResponse(finalResp), nil
}

func executeSalesReport(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall, data DataSource) (string, error) {
	args := funcCall.Args
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)
	if err1 != nil || err2 != nil {
		finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
			Name:     "get_sales_report",
			Response: map[string]interface{}{"error": "dates must be YYYY-MM-DD"},
		})
		if err != nil {
			return "", err
		}
		return printResponse(finalResp), nil
	}
	// Make the end date inclusive
	end = end.Add(24*time.Hour - time.Second)

	summary, err := data.SalesSummary(ctx, start, end)
	if err != nil {
		return "", err
	}

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name: "get_sales_report",
		Response: map[string]interface{}{
			"total_revenue": summary.TotalRevenue,
			"total_orders":  summary.TotalOrders,
		},
	})
	if err != nil {
		return "", err
	}
	return printResponse(finalResp), nil
}

func executeCheckCustomers(ctx context.Context, session *genai.ChatSession, data DataSource) (string, error) {
	customers, err := data.ListCustomers(ctx)
	if err != nil {
		return "", err
	}

	type simpleCustomer struct {
		Username   string  `json:"username"`
		VIP        bool    `json:"vip"`
		Tickets    int     `json:"vip_tickets"`
		TotalSpent float64 `json:"total_spent"`
		OrderCount int64   `json:"order_count"`
	}
	simpleList := make([]simpleCustomer, 0, len(customers))
	for _, c := range customers {
		simpleList = append(simpleList, simpleCustomer{
			Username:   c.Username,
			VIP:        c.IsVIP,
			Tickets:    c.VIPTickets,
			TotalSpent: c.TotalSpent,
			OrderCount: c.OrderCount,
		})
	}
	jsonBytes, _ := json.Marshal(simpleList)

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "check_customers",
		Response: map[string]interface{}{"customers": string(jsonBytes)},
	})
	if err != nil {
		return "", err
	}
	return printResponse(finalResp), nil
}

func printResponse(resp *genai.GenerateContentResponse) string {
	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	if out == "" {
		return "I could not come up with an answer for that."
	}
	return out
}
