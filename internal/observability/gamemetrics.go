package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters for the reward games. HTTP-level metrics (request counts,
// latency) live in the middleware package; these track gameplay outcomes,
// which routes alone cannot distinguish.

var (
	// playsTotal counts consumed plays by game and terminal outcome.
	// Outcomes: "won", "lost", "cashout", "drop".
	playsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_plays_total",
			Help: "Total plays consumed, by game and outcome.",
		},
		[]string{"game", "outcome"},
	)

	// prizesAwarded counts persisted prize entries by game and prize type.
	prizesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizes_awarded_total",
			Help: "Total prizes awarded, by game and prize type.",
		},
		[]string{"game", "prize_type"},
	)

	// prizesRedeemed counts successful redemptions by prize type.
	prizesRedeemed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizes_redeemed_total",
			Help: "Total prizes redeemed, by prize type.",
		},
		[]string{"prize_type"},
	)
)

func init() {
	prometheus.MustRegister(playsTotal, prizesAwarded, prizesRedeemed)
}

// RecordPlay records one finished play for game with the given outcome.
func RecordPlay(game, outcome string) {
	playsTotal.WithLabelValues(game, outcome).Inc()
}

// RecordPrizeAwarded records one awarded prize entry.
func RecordPrizeAwarded(game, prizeType string) {
	prizesAwarded.WithLabelValues(game, prizeType).Inc()
}

// RecordPrizeRedeemed records one successful redemption.
func RecordPrizeRedeemed(prizeType string) {
	prizesRedeemed.WithLabelValues(prizeType).Inc()
}
