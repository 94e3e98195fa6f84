package proof

import "testing"

func TestValidateRequiresURLForArtifactKinds(t *testing.T) {
	for _, kind := range []string{"image", "document", "video"} {
		req := CreateRequest{Kind: kind}
		fields, _ := req.Validate()
		if len(fields) != 1 || fields[0].Field != "url" {
			t.Fatalf("kind %s: expected url violation, got %+v", kind, fields)
		}
	}
}

func TestValidateTextNeedsDescriptionNotURL(t *testing.T) {
	req := CreateRequest{Kind: "text", Description: "delivered in person"}
	if fields, _ := req.Validate(); len(fields) != 0 {
		t.Fatalf("unexpected violations: %+v", fields)
	}

	req = CreateRequest{Kind: "text"}
	fields, _ := req.Validate()
	if len(fields) != 1 || fields[0].Field != "description" {
		t.Fatalf("expected description violation, got %+v", fields)
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	req := CreateRequest{Kind: "audio", URL: "https://example.com/a"}
	fields, _ := req.Validate()
	if len(fields) != 1 || fields[0].Field != "kind" {
		t.Fatalf("expected kind violation, got %+v", fields)
	}
}
