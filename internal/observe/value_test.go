package observe

import "testing"

func TestValueSetNotifies(t *testing.T) {
	v := NewValue("anon")
	var got []string
	unsub := v.Subscribe(func(s string) { got = append(got, s) })

	v.Set("Ana")
	if v.Get() != "Ana" {
		t.Errorf("Get = %q", v.Get())
	}
	unsub()
	unsub()
	v.Set("Bia")

	if len(got) != 1 || got[0] != "Ana" {
		t.Errorf("notifications = %v, want only the one before unsubscribe", got)
	}
}

func TestValueMultipleSubscribers(t *testing.T) {
	v := NewValue(0)
	var a, b int
	v.Subscribe(func(n int) { a = n })
	v.Subscribe(func(n int) { b = n * 10 })
	v.Set(3)
	if a != 3 || b != 30 {
		t.Errorf("a = %d, b = %d", a, b)
	}
}
