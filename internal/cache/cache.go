package cache

import (
	"context"
	"time"
)

type ReceiptCache interface {
	StoreReceipt(ctx context.Context, recordID int64, response string, sentAt time.Time) error
}
