package gatt

// A Service is a BLE GATT service builder (spec.md §3, §4.4). Calls
// to AddCharacteristic and Include must happen before the service is
// registered with a Database.
type Service struct {
	uuid     UUID
	primary  bool
	includes []uint16
	chars    []*Characteristic
}

// NewService creates a primary service builder for uuid.
func NewService(uuid UUID) *Service {
	return &Service{uuid: uuid, primary: true}
}

// NewSecondaryService creates a secondary service builder, reachable
// only via another service's Include (spec.md §3).
func NewSecondaryService(uuid UUID) *Service {
	return &Service{uuid: uuid, primary: false}
}

// Include adds an Include declaration referencing another service
// already registered in the same database, by its service handle.
func (s *Service) Include(serviceHandle uint16) {
	s.includes = append(s.includes, serviceHandle)
}

// AddCharacteristic adds a characteristic to the service. It panics
// if the service already contains a characteristic with the same
// UUID; this is a construction-time programmer error, not a runtime
// condition.
func (s *Service) AddCharacteristic(u UUID) *Characteristic {
	for _, c := range s.chars {
		if c.uuid.Equal(u) {
			panic("gatt: service already contains a characteristic with uuid " + u.String())
		}
	}
	c := &Characteristic{uuid: u, service: s, perms: PermRead}
	s.chars = append(s.chars, c)
	return c
}

// UUID returns the service's UUID.
func (s *Service) UUID() UUID { return s.uuid }
