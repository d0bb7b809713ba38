package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EventsConsumed 按 topic 与结果统计消费的事件数
	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_consumed_total",
			Help: "Number of consumed event records by topic and result.",
		},
		[]string{"topic", "result"},
	)

	// Connections 各命名空间当前存活的连接数
	Connections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_connections",
			Help: "Number of live socket connections by namespace.",
		},
		[]string{"namespace"},
	)

	// RoomEmits 房间广播次数
	RoomEmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_room_emits_total",
			Help: "Number of room-addressed emits by namespace.",
		},
		[]string{"namespace"},
	)
)

// 消费结果标签
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// Register 在 main 中统一注册
func Register(reg prometheus.Registerer) {
	reg.MustRegister(EventsConsumed, Connections, RoomEmits)
}
