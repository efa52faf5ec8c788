package gatt

import (
	"bytes"
	"testing"
)

func TestAdvertisementUnmarshal(t *testing.T) {
	raw := []byte{
		0x02, 0x01, 0x06, // flags: LE general discoverable, BR/EDR not supported
		0x03, 0x03, 0x0F, 0x18, // complete 16-bit UUID list: 0x180F
		0x05, 0x09, 'T', 'e', 's', 't', // complete local name: "Test"
	}
	a := &Advertisement{}
	if err := a.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !a.HasFlags || a.Flags != 0x06 {
		t.Errorf("flags = %v/0x%02X, want true/0x06", a.HasFlags, a.Flags)
	}
	if len(a.Services) != 1 || !a.Services[0].Equal(UUID16(0x180F)) {
		t.Errorf("services = %v, want [0x180F]", a.Services)
	}
	if !a.ServicesComplete {
		t.Error("ServicesComplete = false, want true")
	}
	if a.LocalName != "Test" || !a.LocalNameComplete {
		t.Errorf("local name = %q/%v, want Test/true", a.LocalName, a.LocalNameComplete)
	}
}

func TestAdvertisementRoundTrip(t *testing.T) {
	uuids := []UUID{UUID16(0x180F), UUID16(0x180A)}
	data, fit := serviceAdvertisingPacket(uuids)
	if len(fit) != len(uuids) {
		t.Fatalf("serviceAdvertisingPacket dropped uuids: fit=%v want=%v", fit, uuids)
	}

	a := &Advertisement{}
	if err := a.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(a.Services) != len(uuids) {
		t.Fatalf("decoded %d services, want %d", len(a.Services), len(uuids))
	}
	for i, u := range uuids {
		if !a.Services[i].Equal(u) {
			t.Errorf("service[%d] = %v, want %v", i, a.Services[i], u)
		}
	}
}

// TestServiceAdvertisingPacketUsesCompleteListWhenEverythingFits is a
// regression test: a set of UUIDs that all fit within the advertising
// budget must be tagged with the complete-list TLV, not the
// incomplete-list one, per spec.md §4.3.2.
func TestServiceAdvertisingPacketUsesCompleteListWhenEverythingFits(t *testing.T) {
	uuids := []UUID{UUID16(0x180F), UUID16(0x180A)}
	data, _ := serviceAdvertisingPacket(uuids)

	foundComplete := false
	for i := 0; i < len(data); {
		l, typ := data[i], data[i+1]
		if typ == typeAllUUID16 {
			foundComplete = true
		}
		if typ == typeSomeUUID16 {
			t.Errorf("found incomplete-list TLV (0x%02X) even though every UUID fits", typeSomeUUID16)
		}
		i += int(l) + 1
	}
	if !foundComplete {
		t.Error("no complete-list TLV (0x03) found in the advertising packet")
	}
}

func TestServiceAdvertisingPacketUsesIncompleteListWhenSomeDontFit(t *testing.T) {
	var uuids []UUID
	for i := 0; i < 20; i++ {
		uuids = append(uuids, UUID16(uint16(0x1800+i)))
	}
	data, fit := serviceAdvertisingPacket(uuids)
	if len(fit) >= len(uuids) {
		t.Fatalf("expected some uuids to be dropped, got all %d fit", len(fit))
	}

	foundIncomplete := false
	for i := 0; i < len(data); {
		l, typ := data[i], data[i+1]
		if typ == typeSomeUUID16 {
			foundIncomplete = true
		}
		if typ == typeAllUUID16 {
			t.Error("found complete-list TLV even though not every uuid fit")
		}
		i += int(l) + 1
	}
	if !foundIncomplete {
		t.Error("no incomplete-list TLV (0x02) found when some uuids were dropped")
	}
}

func TestNameScanResponsePacketTruncatesLongNames(t *testing.T) {
	name := "a-name-that-is-definitely-longer-than-the-allowed-advertising-budget"
	data := nameScanResponsePacket(name)
	if len(data) > MaxEIRPacketLength {
		t.Errorf("scan response packet is %d bytes, want <= %d", len(data), MaxEIRPacketLength)
	}
	if data[1] != typeShortName {
		t.Errorf("type byte = 0x%02X, want typeShortName (0x%02X)", data[1], typeShortName)
	}
}

func TestNameScanResponsePacketKeepsShortNamesComplete(t *testing.T) {
	data := nameScanResponsePacket("Test")
	if !bytes.Equal(data, []byte{0x05, typeCompleteName, 'T', 'e', 's', 't'}) {
		t.Errorf("got % X, want complete-name TLV for \"Test\"", data)
	}
}
