package upstream

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

func TestUnwrapAttributes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		email string
	}{
		{"wrapped", `{"object":"user","attributes":{"id":7,"email":"a@b.com"}}`, "a@b.com"},
		{"flat", `{"id":7,"email":"a@b.com"}`, "a@b.com"},
		{"wrapped wins over outer fields", `{"email":"outer@b.com","attributes":{"id":7,"email":"inner@b.com"}}`, "inner@b.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := UnwrapAttributes(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("UnwrapAttributes: %v", err)
			}
			var email string
			if err := json.Unmarshal(fields["email"], &email); err != nil {
				t.Fatalf("email field: %v", err)
			}
			if email != tt.email {
				t.Errorf("email = %q, want %q", email, tt.email)
			}
		})
	}
}

func TestUnwrapAttributesNotAnObject(t *testing.T) {
	_, err := UnwrapAttributes(json.RawMessage(`[1,2]`))
	if !IsKind(err, KindMalformedUpstream) {
		t.Fatalf("err = %v, want kind %s", err, KindMalformedUpstream)
	}
}

func TestCoerceList(t *testing.T) {
	// A bare object and a one-element array must normalize identically.
	scalar, err := CoerceList(json.RawMessage(`{"id":1}`))
	if err != nil {
		t.Fatalf("scalar: %v", err)
	}
	wrapped, err := CoerceList(json.RawMessage(`[{"id":1}]`))
	if err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	if len(scalar) != 1 || len(wrapped) != 1 {
		t.Fatalf("lengths = %d, %d, want 1, 1", len(scalar), len(wrapped))
	}
	if string(scalar[0]) != string(wrapped[0]) {
		t.Errorf("scalar %s != wrapped %s", scalar[0], wrapped[0])
	}

	empty, err := CoerceList(json.RawMessage(`null`))
	if err != nil {
		t.Fatalf("null: %v", err)
	}
	if empty != nil {
		t.Errorf("null coerced to %v, want nil", empty)
	}

	if _, err := CoerceList(json.RawMessage(`{broken`)); !IsKind(err, KindMalformedUpstream) {
		t.Errorf("broken input err = %v, want kind %s", err, KindMalformedUpstream)
	}
}

func TestSplitStatusDomainPairs(t *testing.T) {
	got, err := SplitStatusDomainPairs("ACTIVE,example.com,SUSPENDED,old.example.net")
	if err != nil {
		t.Fatalf("SplitStatusDomainPairs: %v", err)
	}
	want := []models.DomainStatus{
		{Status: "ACTIVE", Domain: "example.com"},
		{Status: "SUSPENDED", Domain: "old.example.net"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pairs = %+v, want %+v", got, want)
	}
}

func TestSplitStatusDomainPairsEmpty(t *testing.T) {
	got, err := SplitStatusDomainPairs("   ")
	if err != nil {
		t.Fatalf("SplitStatusDomainPairs: %v", err)
	}
	if got != nil {
		t.Errorf("pairs = %+v, want nil", got)
	}
}

func TestSplitStatusDomainPairsOddLength(t *testing.T) {
	_, err := SplitStatusDomainPairs("ACTIVE,example.com,SUSPENDED")
	if !IsKind(err, KindInvariantViolation) {
		t.Fatalf("err = %v, want kind %s", err, KindInvariantViolation)
	}
	ue := AsError(err)
	if ue.Body == "" {
		t.Error("violation should retain the offending body for diagnosis")
	}
}

func TestScanLabelValueTable(t *testing.T) {
	page := `<html><body><table>
		<tr><td>FTP Host Name:</td><td>ftp.example.com</td></tr>
		<tr><td>ftp port</td><td>21</td></tr>
		<tr><td>Unrelated Row</td><td>ignored</td></tr>
		<tr><td>short row</td></tr>
	</table></body></html>`
	doc, err := ParseHTML(page)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	values := ScanLabelValueTable(doc, []string{"FTP Host Name", "FTP Port"})
	if values["FTP Host Name"] != "ftp.example.com" {
		t.Errorf("host = %q, want ftp.example.com", values["FTP Host Name"])
	}
	// Label matching is case-insensitive and keyed by the known label.
	if values["FTP Port"] != "21" {
		t.Errorf("port = %q, want 21", values["FTP Port"])
	}
	if len(values) != 2 {
		t.Errorf("values = %v, unmatched rows must be ignored", values)
	}
}

func TestAnchorTexts(t *testing.T) {
	page := `<html><body><a href="/x">example.com</a><a href="/y"> </a><a>Settings</a></body></html>`
	doc, err := ParseHTML(page)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	got := AnchorTexts(doc)
	want := []string{"example.com", "Settings"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("anchors = %v, want %v", got, want)
	}
}
