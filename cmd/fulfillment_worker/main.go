package main

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/vinayak200306/Veluno/internal/dao"
	"github.com/vinayak200306/Veluno/internal/dao/mysql"
	redisinit "github.com/vinayak200306/Veluno/internal/dao/redis"
	"github.com/vinayak200306/Veluno/internal/mq"
	"github.com/vinayak200306/Veluno/internal/qikink"
	"github.com/vinayak200306/Veluno/internal/service"
	"github.com/vinayak200306/Veluno/pkg/app"
	"github.com/vinayak200306/Veluno/pkg/logger"
)

const (
	// 只消费下单事件，取消与状态变更事件不触发代发货
	fulfillmentQueue = "veluno.fulfillment"
)

func main() {
	cfg := app.BootstrapApp()

	db, err := mysql.InitDB(&cfg.Database.Mysql)
	if err != nil {
		logger.Fatal("Failed to init MySQL", "err", err)
	}

	rdb, err := redisinit.InitRedis(&cfg.Database.Redis)
	if err != nil {
		logger.Fatal("Failed to init Redis", "err", err)
	}

	orderDao := dao.NewOrderDao(db)
	productDao := dao.NewProductDao(db)

	tokens := qikink.NewTokenProvider(&cfg.Qikink, nil)
	client := qikink.NewClient(&cfg.Qikink, tokens, nil)

	// 仅绑定 order.created
	conn, ch, msgs, err := mq.NewConsumerChannel(&cfg.MQ, fulfillmentQueue, mq.KeyOrderCreated, mq.Exchange, true, cfg.MQ.ConsumerPrefetch)
	if err != nil {
		logger.Fatal("init consumer channel failed", "err", err)
	}
	defer mq.CloseConsumer(conn, ch)

	logger.Info("Fulfillment worker started", "queue", fulfillmentQueue)

	for d := range msgs {
		// 幂等：MessageId用Redis去重，重投直接ACK
		key := "fulfillment:done:" + d.MessageId
		if d.MessageId != "" {
			added, _ := rdb.SetNX(context.Background(), key, 1, 24*time.Hour).Result()
			if !added {
				logger.Warn("Duplicate fulfillment message, skipping", "message_id", d.MessageId)
				_ = d.Ack(false)
				continue
			}
		}

		var evt service.OrderEvent
		if err := json.Unmarshal(d.Body, &evt); err != nil {
			logger.Error("order event decode failed", "err", err)
			_ = d.Nack(false, false)
			continue
		}

		if err := submitFulfillment(orderDao, productDao, client, &evt); err != nil {
			logger.Error("fulfillment submit failed", "order_id", evt.OrderID, "err", err)
			_ = d.Nack(false, true)
			rdb.Del(context.Background(), key)
			continue
		}
		_ = d.Ack(false)
	}
}

// submitFulfillment 把本地订单转换为代发货单并提交。
// 只有关联了代发货商品的订单行会进入代发货单，
// 纯自营订单直接跳过。
func submitFulfillment(orders *dao.OrderDao, products *dao.ProductDao, client *qikink.Client, evt *service.OrderEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	order, err := orders.GetByID(ctx, evt.OrderID)
	if err != nil {
		return err
	}

	var items []qikink.FulfillmentItem
	for _, it := range order.Items {
		product, err := products.GetByID(ctx, it.ProductID)
		if err != nil {
			// 商品被删时继续处理其余订单行
			logger.Warn("product lookup failed during fulfillment",
				"product_id", it.ProductID, "err", err)
			continue
		}
		if product.QikinkProductID == "" {
			continue
		}
		items = append(items, qikink.FulfillmentItem{
			ProductID: product.QikinkProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	if len(items) == 0 {
		logger.Info("order has no dropship items", "order_number", order.OrderNumber)
		return nil
	}

	fo := &qikink.FulfillmentOrder{OrderID: order.OrderNumber, Items: items}
	fo.Customer.Name = order.CustomerName
	fo.Customer.Email = order.Email
	fo.Customer.Phone = order.Phone
	fo.Customer.Address.Line1 = order.Address.Street
	fo.Customer.Address.City = order.Address.City
	fo.Customer.Address.State = order.Address.State
	fo.Customer.Address.Pincode = order.Address.PostalCode
	fo.Customer.Address.Country = order.Address.Country

	if err := client.CreateOrder(ctx, fo); err != nil {
		return err
	}
	logger.Info("fulfillment order submitted",
		"order_number", order.OrderNumber, "items", strconv.Itoa(len(items)))
	return nil
}
