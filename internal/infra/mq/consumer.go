package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumeOrderEvents 声明 worker 队列并绑定全部订单事件，手动 ack
func ConsumeOrderEvents(conn *amqp.Connection, prefetch int) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) (*amqp.Channel, <-chan amqp.Delivery, error) {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := declareExchange(ch); err != nil {
		return fail("declare exchange", err)
	}
	if _, err := ch.QueueDeclare(QueueOrderWorker, true, false, false, false, nil); err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(QueueOrderWorker, bindingAllOrders, ExchangeOrderEvents, false, nil); err != nil {
		return fail("bind queue", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fail("qos", err)
		}
	}
	msgs, err := ch.Consume(QueueOrderWorker, "", false, false, false, false, nil)
	if err != nil {
		return fail("consume", err)
	}
	return ch, msgs, nil
}
