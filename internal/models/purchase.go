package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Purchase records a buyer unlocking the prediction for one match. A unique
// compound index on (matchId, buyerAddress) closes the duplicate-purchase race
// at the storage layer; purchases are never mutated or deleted.
type Purchase struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PurchaseID     string             `bson:"purchaseId" json:"purchaseId"`
	MatchID        primitive.ObjectID `bson:"matchId" json:"matchId"`
	League         string             `bson:"league" json:"league"`
	BuyerAddress   string             `bson:"buyerAddress" json:"buyerAddress"`
	PaymentRef     string             `bson:"paymentRef" json:"paymentRef"`
	Amount         float64            `bson:"amount" json:"amount"`
	TokenSymbol    string             `bson:"tokenSymbol" json:"tokenSymbol"`
	PredictionText string             `bson:"predictionText" json:"predictionText"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// PurchaseCount is the aggregate returned by the purchase count endpoint
type PurchaseCount struct {
	MatchID        primitive.ObjectID `json:"matchId"`
	BuyerCount     int                `json:"buyerCount"`
	TotalPurchases int                `json:"totalPurchases"`
}
