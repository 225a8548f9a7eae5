package core

import "context"

// ChangeOp is a bit mask of row operations.
type ChangeOp uint8

const (
	OpInsert ChangeOp = 1 << iota
	OpUpdate
	OpDelete

	OpAll = OpInsert | OpUpdate | OpDelete
)

func ParseChangeOp(s string) ChangeOp {
	switch s {
	case "INSERT":
		return OpInsert
	case "UPDATE":
		return OpUpdate
	case "DELETE":
		return OpDelete
	}
	return 0
}

type ChangeEvent struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// ChangeFeed delivers row change notifications for a table.
type ChangeFeed interface {
	// Subscribe calls fn for every event on table matching mask until ctx is done
	// or the returned cancel func is called.
	Subscribe(ctx context.Context, table string, mask ChangeOp, fn func(ChangeEvent)) (cancel func(), err error)
}
