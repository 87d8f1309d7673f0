package pcidev

// Fake is an in-memory stand-in for a real PCI device, used by vmxnet3's
// own tests and by cmd/vmxnet3ctl's demo mode. It backs the VD and PT BAR
// windows with plain byte slices and lets a test install a WriteHook that
// reacts to VD writes the way real device firmware would -- most notably
// answering the command register synchronously so Command()'s
// write-then-read round-trip observes a real status.
type Fake struct {
	Rev      uint8
	VDBytes  []byte
	PTBytes  []byte
	MSIX     uint8
	Affinity []affinityRecord

	// WriteHook runs after every VD write, offset and the value written.
	// Installing one lets a test simulate firmware: e.g. answering
	// VD+0x20 (command) based on what was just requested.
	WriteHook func(vd []byte, offset uint32, value uint32)
}

type affinityRecord struct {
	CPU    int
	Vector uint8
}

// NewFake returns a Fake sized for the vmxnet3 register layout (spec §6)
// with MSI-X reported available, matching a healthy vmxnet3 adapter.
func NewFake() *Fake {
	return &Fake{
		Rev:     RevisionID,
		VDBytes: make([]byte, 0x1000),
		PTBytes: make([]byte, 0x2000),
		MSIX:    3,
	}
}

func (f *Fake) RevisionID() uint8 { return f.Rev }

func (f *Fake) ParseCapabilities() error { return nil }

func (f *Fake) ProbeResources() error { return nil }

func (f *Fake) BAR(index int) (BAR, error) {
	switch index {
	case BarVD:
		return BAR{Mem: f.VDBytes}, nil
	case BarPT:
		return BAR{Mem: f.PTBytes}, nil
	default:
		return BAR{}, errUnknownBAR
	}
}

func (f *Fake) HasMSIX() bool { return f.MSIX > 0 }

func (f *Fake) MSIXVectors() uint8 { return f.MSIX }

func (f *Fake) SetupMSIXVector(cpu int, vector uint8) error {
	f.Affinity = append(f.Affinity, affinityRecord{cpu, vector})
	return nil
}

func (f *Fake) RebalanceMSIXVector(i int, cpu int, vector uint8) error {
	if i < 0 || i >= len(f.Affinity) {
		return errUnknownVector
	}
	f.Affinity[i] = affinityRecord{cpu, vector}
	return nil
}

// NotifyVDWrite implements Notifier: it lets the driver's register layer
// tell the fake device about every VD write, synchronously, the way real
// device firmware would react inline (there is no separate device thread
// in this model). Installing WriteHook lets a test answer the command
// register, fake version negotiation, and so on.
func (f *Fake) NotifyVDWrite(offset uint32, value uint32) {
	if f.WriteHook != nil {
		f.WriteHook(f.VDBytes, offset, value)
	}
}
