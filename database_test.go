package gatt

import (
	"testing"
)

// decodeValueUUID decodes a service declaration's packed (little-endian)
// Value back into a canonical UUID, mirroring how a real ATT client
// would interpret the bytes off the wire.
func decodeValueUUID(t *testing.T, value []byte) UUID {
	t.Helper()
	u, err := UUIDFromBytes(reverseBytes(value))
	if err != nil {
		t.Fatalf("decodeValueUUID(% X): %v", value, err)
	}
	return u
}

func TestNewDatabaseSeedsGAPAndGATT(t *testing.T) {
	d := NewDatabase("my-device")
	matches := d.FindByType(1, 0xFFFF, uuidPrimaryService)
	if len(matches) != 2 {
		t.Fatalf("got %d primary services after NewDatabase, want 2 (GAP, GATT)", len(matches))
	}
	if got := decodeValueUUID(t, matches[0].Value); !got.Equal(uuidGAPService) {
		t.Errorf("first seeded service = %v, want GAP (%v)", got, uuidGAPService)
	}
	if got := decodeValueUUID(t, matches[1].Value); !got.Equal(uuidGATTService) {
		t.Errorf("second seeded service = %v, want GATT (%v)", got, uuidGATTService)
	}
}

func TestAddPrimaryServiceStoresUUID(t *testing.T) {
	d := NewDatabase("dev")
	want := MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b")
	h, err := d.AddPrimaryService(want)
	if err != nil {
		t.Fatalf("AddPrimaryService: %v", err)
	}
	a, ok := d.Get(h)
	if !ok {
		t.Fatalf("Get(%d): not found", h)
	}
	if !a.Type.Equal(uuidPrimaryService) {
		t.Errorf("Type = %v, want generic primary-service type", a.Type)
	}
	if got := decodeValueUUID(t, a.Value); !got.Equal(want) {
		t.Errorf("service declaration Value decodes to %v, want %v", got, want)
	}
}

func TestFindByTypeValueLocatesService(t *testing.T) {
	d := NewDatabase("dev")
	want := MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b")
	h, err := d.AddPrimaryService(want)
	if err != nil {
		t.Fatalf("AddPrimaryService: %v", err)
	}
	matches := d.FindByTypeValue(1, 0xFFFF, uuidPrimaryService, want.Pack())
	if len(matches) != 1 || matches[0].Handle != h {
		t.Fatalf("FindByTypeValue: got %v, want exactly handle %d", matches, h)
	}
}

func TestAddIncludeStoresIncludedServiceUUID(t *testing.T) {
	d := NewDatabase("dev")
	included := MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b")
	includedHandle, err := d.AddPrimaryService(included)
	if err != nil {
		t.Fatalf("AddPrimaryService(included): %v", err)
	}
	owner := MustParseUUID("16fe0d80-c111-11e3-b8c8-0002a5d5c51b")
	ownerHandle, err := d.AddPrimaryService(owner)
	if err != nil {
		t.Fatalf("AddPrimaryService(owner): %v", err)
	}
	incHandle, err := d.AddInclude(ownerHandle, includedHandle)
	if err != nil {
		t.Fatalf("AddInclude: %v", err)
	}
	a, ok := d.Get(incHandle)
	if !ok {
		t.Fatalf("Get(%d): not found", incHandle)
	}
	if len(a.Value) < 4 {
		t.Fatalf("include declaration value too short: % X", a.Value)
	}
	gotUUID := a.Value[4:]
	if want := included.Pack(); string(gotUUID) != string(want) {
		t.Errorf("include declaration carries UUID % X, want % X", gotUUID, want)
	}
}

func TestHandleRangeContiguousAndNeverReused(t *testing.T) {
	d := NewDatabase("dev")
	before := len(d.Range(1, 0xFFFF))
	h1, _ := d.AddPrimaryService(UUID16(0x180F))
	h2, _ := d.AddPrimaryService(UUID16(0x180A))
	if h2 != h1+1 {
		t.Errorf("handles not contiguous: h1=%d h2=%d", h1, h2)
	}
	after := len(d.Range(1, 0xFFFF))
	if after != before+2 {
		t.Errorf("Range length after two AddPrimaryService calls = %d, want %d", after, before+2)
	}
}

func TestRegisterServicesExtendsGroupAcrossCharacteristics(t *testing.T) {
	d := NewDatabase("dev")
	before := len(d.Range(1, 0xFFFF))

	battery := NewService(UUID16(0x180F))
	battery.AddCharacteristic(UUID16(0x2A19))

	if err := d.RegisterServices(battery); err != nil {
		t.Fatalf("RegisterServices: %v", err)
	}
	after := len(d.Range(1, 0xFFFF))
	if after != before+3 {
		t.Errorf("RegisterServices grew the database by %d attrs, want 3 (service decl + char decl + value)", after-before)
	}

	matches := d.FindByTypeValue(1, 0xFFFF, uuidPrimaryService, UUID16(0x180F).AppendPack(nil))
	if len(matches) != 1 {
		t.Fatalf("FindByTypeValue(0x2800, 0x180F): got %d matches, want 1", len(matches))
	}
	svc := matches[0]
	if svc.EndGroupHandle < svc.Handle+1 {
		t.Errorf("EndGroupHandle = 0x%04X, want it extended past the service decl handle 0x%04X", svc.EndGroupHandle, svc.Handle)
	}
}

func TestRegisterServicesRejectsDuplicateCharacteristicAtConstruction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("AddCharacteristic with a duplicate uuid did not panic")
		}
	}()
	svc := NewService(UUID16(0x180F))
	svc.AddCharacteristic(UUID16(0x2A19))
	svc.AddCharacteristic(UUID16(0x2A19))
}
