package rabbit

import "github.com/streadway/amqp"

//DeclareExchange declares fanout exchange for event topic
func DeclareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		"fanout",
		false, // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
}

//DeclareBindQueue declares anonymous queue and binds it to exchange
func DeclareBindQueue(ch *amqp.Channel, exchange string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return q, err
	}
	err = ch.QueueBind(q.Name, "", exchange, false, nil)
	return q, err
}

//Consume starts consuming the queue
func Consume(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	return ch.Consume(
		queue,
		"",    // consumer
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
}
