package priv

import (
	"reflect"
	"sort"
	"testing"
)

// The accessor contract is the four operations and nothing else: no
// iteration, no key or record listing, no size. The method set itself is
// part of the contract, so it is pinned here.
func TestAccessorSurfaceIsExactlyFourOperations(t *testing.T) {
	want := []string{"Delete", "Get", "Has", "Set"}

	cases := []struct {
		name string
		typ  reflect.Type
	}{
		{"Channel", reflect.TypeOf(NewChannel[account, secret]())},
		{"Dynamic", reflect.TypeOf(NewDynamic[string]())},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := make([]string, 0, tc.typ.NumMethod())
			for i := 0; i < tc.typ.NumMethod(); i++ {
				got = append(got, tc.typ.Method(i).Name)
			}
			sort.Strings(got)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("accessor surface changed: want %v, got %v", want, got)
			}
		})
	}
}

// Nothing on the accessor struct is exported: reflection over fields finds
// no path to entries or configuration.
func TestAccessorExportsNoFields(t *testing.T) {
	cases := []struct {
		name string
		typ  reflect.Type
	}{
		{"Channel", reflect.TypeOf(Channel[account, secret]{})},
		{"Dynamic", reflect.TypeOf(Dynamic[string]{})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < tc.typ.NumField(); i++ {
				if tc.typ.Field(i).IsExported() {
					t.Fatalf("field %q must not be exported", tc.typ.Field(i).Name)
				}
			}
		})
	}
}
