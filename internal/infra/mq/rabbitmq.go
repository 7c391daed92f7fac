package mq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/xiaoyuanbao/internal/config"
)

const (
	// ExchangeOrderEvents 订单事件 topic 交换机
	ExchangeOrderEvents = "order.events"
	// QueueOrderWorker worker 消费的持久队列
	QueueOrderWorker = "order.events.worker"
	bindingAllOrders = "order.#"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 初始化 RabbitMQ 连接
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			zap.L().Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		conn = c
	})
	return conn
}

// Conn 获取 MQ 连接
func Conn() *amqp.Connection {
	return conn
}

func declareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(ExchangeOrderEvents, "topic", true, false, false, false, nil)
}
