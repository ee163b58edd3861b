/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestTypeRegistry(t *testing.T) {
	RegisterType("RegistryWidget", func(item map[string]types.AttributeValue) (interface{}, error) {
		return widget{ID: "w-1"}, nil
	})

	fn, err := GetUnmarshalFunc("RegistryWidget")
	if err != nil {
		t.Fatalf("GetUnmarshalFunc failed: %v", err)
	}
	obj, err := fn(nil)
	if err != nil {
		t.Fatalf("unmarshal func failed: %v", err)
	}
	if w, ok := obj.(widget); !ok || w.ID != "w-1" {
		t.Fatalf("unexpected object: %#v", obj)
	}

	if _, err := GetUnmarshalFunc("Nope"); err == nil {
		t.Fatal("expected error for unregistered discriminator")
	}
}

func TestRegisterTypePanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()

	RegisterType("DuplicateWidget", func(item map[string]types.AttributeValue) (interface{}, error) { return nil, nil })
	RegisterType("DuplicateWidget", func(item map[string]types.AttributeValue) (interface{}, error) { return nil, nil })
}
