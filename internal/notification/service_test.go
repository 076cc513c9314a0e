package notification

import (
	"reflect"
	"testing"
)

func TestPushDrain(t *testing.T) {
	ns := NewNotificationService(0)
	ns.Push("u1", "first")
	ns.Push("u2", "other user")
	ns.Push("u1", "second")

	if n := ns.Pending("u1"); n != 2 {
		t.Fatalf("pending = %d", n)
	}
	if got := ns.Drain("u1"); !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Fatalf("Drain = %q", got)
	}
	if got := ns.Drain("u1"); len(got) != 0 || got == nil {
		t.Fatalf("second Drain = %#v, want empty non-nil slice", got)
	}
	if got := ns.Drain("u2"); !reflect.DeepEqual(got, []string{"other user"}) {
		t.Fatalf("Drain u2 = %q", got)
	}
}

func TestQueueIsBounded(t *testing.T) {
	ns := NewNotificationService(2)
	for _, m := range []string{"a", "b", "c"} {
		ns.Push("u1", m)
	}
	if got := ns.Drain("u1"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Drain = %q", got)
	}
}
