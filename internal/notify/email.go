package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/fiftyclub/alerter/internal/scorer"
)

// promoCode is the DoorDash code the whole service exists to announce.
const promoCode = "NBA50"

// headline picks the performance the subject line leads with: the most
// recent date, highest points first.
func headline(alerts []scorer.PerformanceRecord) scorer.PerformanceRecord {
	best := alerts[0]
	for _, a := range alerts[1:] {
		if a.Date > best.Date || (a.Date == best.Date && a.Points > best.Points) {
			best = a
		}
	}
	return best
}

func buildSubject(latest scorer.PerformanceRecord) string {
	return fmt.Sprintf("🏀 DoorDash 50%% OFF Today! %s scored %d points", latest.Player, latest.Points)
}

func buildPlainText(alerts []scorer.PerformanceRecord) string {
	var b strings.Builder
	b.WriteString("DoorDash 50% OFF Today!\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "%s scored %d points (%s vs %s) on %s\n",
			a.Player, a.Points, a.Team, a.Opponent, formatDate(a.Date))
	}
	fmt.Fprintf(&b, "\nUse code %s at checkout. Valid today only!\n", promoCode)
	return b.String()
}

func buildHTML(alerts []scorer.PerformanceRecord) string {
	var scorers strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&scorers, `
        <div style="background: white; padding: 20px; margin: 15px 0; border-left: 4px solid #ff6600;">
            <div style="font-size: 20px; font-weight: bold; color: #ff6600;">%s</div>
            <div style="color: #666; margin-top: 5px;">
                %d points &bull; %s vs %s &bull; %s
            </div>
        </div>`,
			a.Player, a.Points, a.Team, a.Opponent, formatDate(a.Date))
	}

	return fmt.Sprintf(`
    <html>
    <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
        <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
            <div style="background: linear-gradient(135deg, #ff6600 0%%, #ff3300 100%%); color: white; padding: 30px; text-align: center; border-radius: 10px;">
                <h1 style="margin: 0; font-size: 28px;">🏀 DoorDash 50%% OFF Alert!</h1>
                <p style="margin: 10px 0 0 0; font-size: 16px;">The promo is active TODAY</p>
            </div>

            <div style="background: #f9f9f9; padding: 30px; margin: 20px 0; border-radius: 10px;">
                <p><strong>Great news!</strong> An NBA player scored 50+ points, which means you get 50%% off on DoorDash today!</p>
                %s
                <div style="background: #ff6600; color: white; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; border-radius: 10px; margin: 20px 0;">
                    %s
                </div>
                <p><strong>How to use:</strong></p>
                <ol>
                    <li>Open the DoorDash app</li>
                    <li>Make sure you have DashPass (required for this promo)</li>
                    <li>Add items to your cart</li>
                    <li>Enter promo code <strong>%s</strong> at checkout</li>
                    <li>Get 50%% off (up to $10 savings)!</li>
                </ol>
                <p style="color: #ff6600; font-weight: bold;">⏰ This promo is only valid TODAY, so use it before midnight!</p>
            </div>

            <div style="text-align: center; color: #999; font-size: 12px; margin-top: 30px;">
                <p>You're receiving this because you signed up for NBA 50-Point Alerts</p>
                <p><a href="{{UnsubscribeURL}}" style="color: #666;">Unsubscribe</a></p>
            </div>
        </div>
    </body>
    </html>`, scorers.String(), promoCode, promoCode)
}

// formatDate renders a record date for display, e.g. "March 14, 2025".
// Unparseable input passes through unchanged.
func formatDate(date string) string {
	d, err := time.Parse(scorer.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("January 2, 2006")
}
