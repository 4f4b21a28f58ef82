package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

func stubInvoke(ctx context.Context, params contractx.Params) (any, error) {
	return "ok", nil
}

func TestRegisterAndResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register(&Descriptor{Name: "probe", Invoke: stubInvoke}); err != nil {
		t.Fatalf("register: %v", err)
	}

	d, err := reg.Resolve("probe")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if d.Timeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %v", d.Timeout)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register(&Descriptor{Name: "probe", Invoke: stubInvoke}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := reg.Register(&Descriptor{Name: "probe", Invoke: stubInvoke})
	if !errors.Is(err, contractx.ErrToolRegistered) {
		t.Fatalf("expected ErrToolRegistered, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		desc *Descriptor
	}{
		{"nil descriptor", nil},
		{"empty name", &Descriptor{Name: "  ", Invoke: stubInvoke}},
		{"missing invoke", &Descriptor{Name: "probe"}},
		{"negative retries", &Descriptor{Name: "probe", Invoke: stubInvoke, Retries: -1}},
		{"excessive retries", &Descriptor{Name: "probe", Invoke: stubInvoke, Retries: maxRetries + 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := NewRegistry().Register(tc.desc)
			if !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestResolveUnknownTool(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Resolve("ghost")
	if !errors.Is(err, contractx.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		if err := reg.Register(&Descriptor{Name: name, Invoke: stubInvoke}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	var got []string
	for _, d := range reg.List() {
		got = append(got, d.Name)
	}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestInfosExportCatalog(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	err := reg.Register(&Descriptor{
		Name: "probe",
		Desc: "probe tool",
		Params: map[string]contractx.ParamSpec{
			"symbol": {Kind: contractx.ParamEntity, Entity: "crypto_symbol", Default: "BTC"},
			"ids":    {Kind: contractx.ParamList, Entity: "coin_id"},
		},
		Timeout: time.Second,
		Invoke:  stubInvoke,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	infos := reg.Infos()
	if len(infos) != 1 {
		t.Fatalf("expected one info, got %d", len(infos))
	}
	if infos[0].Name != "probe" || infos[0].Desc != "probe tool" {
		t.Fatalf("unexpected info: %+v", infos[0])
	}
	if infos[0].ParamsOneOf == nil {
		t.Fatal("expected exported param schema")
	}
}
