package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(warnsIssuedTotal, verificationsTotal, memberKicksTotal, restrictionsTotal, callbackAnswersTotal)
}

var warnsIssuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "warns_issued_total",
		Help: "Verification warnings issued, labeled by step.",
	},
	[]string{"step"},
)

var verificationsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "verifications_total",
		Help: "Members who completed verification.",
	},
)

var memberKicksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "member_kicks_total",
		Help: "Members kicked after the verification window lapsed.",
	},
)

var restrictionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "restrictions_total",
		Help: "Member restriction changes, labeled by direction.",
	},
	[]string{"direction"}, // 'restrict', 'permit'
)

var callbackAnswersTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "callback_answers_total",
		Help: "Callback answer modes executed, labeled by outcome.",
	},
	[]string{"mode", "status"},
)

func IncWarnIssued(step string) {
	warnsIssuedTotal.WithLabelValues(norm(step)).Inc()
}

func IncVerification() { verificationsTotal.Inc() }

func IncMemberKick() { memberKicksTotal.Inc() }

func IncRestriction(permit bool) {
	direction := "restrict"
	if permit {
		direction = "permit"
	}
	restrictionsTotal.WithLabelValues(direction).Inc()
}

func IncCallbackAnswer(mode string, ok bool) {
	status := "failed"
	if ok {
		status = "completed"
	}
	callbackAnswersTotal.WithLabelValues(norm(mode), status).Inc()
}
