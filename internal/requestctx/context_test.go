package requestctx

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	rc := &Context{UserID: 7, Username: "alice", Token: "renewed"}
	ctx := WithContext(context.Background(), rc)

	got, ok := FromContext(ctx)
	if !ok || got != rc {
		t.Fatalf("expected stored context, got %v %v", got, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("expected miss on bare context")
	}
}
