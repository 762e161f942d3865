// otp.go - one-time-programmable memory with Hamming ECC

/*
otp.go models the 512-page x 128-bit OTP array. Each page is staged
through four 32-bit data registers and a 16-bit byte-enable mask (only
enabled bytes are affected by a program, matching real OTP fuse
behavior where programming is the only operation and unprogrammed bytes
must not be disturbed); a program recomputes and stores the page's
Hamming(72,64) parity over each 64-bit half via hamming.go. Two pages are
seeded at construction with a pseudo-unique id and the part string - the
pseudo-unique id is a fixed constant rather than drawn from any real
host-identity source, since nothing downstream decodes it; what matters
is that a full read-back of a programmed page returns exactly the bits
that were written.
*/

package main

import "encoding/binary"

const (
	otpPageCount     = 512
	otpPageBytes     = 16
	otpPseudoIDPage  = 0
	otpPartStrPage   = 1
)

// OTP is the one-time-programmable memory device.
type OTP struct {
	RegisterDevice

	pages [otpPageCount][otpPageBytes]byte
	ecc   [otpPageCount][2]uint8

	page    uint32
	ben     uint16
	staging [otpPageBytes]byte
}

// NewOTP constructs the OTP array, pre-seeded with its two fixed pages.
func NewOTP(base uint32) *OTP {
	o := &OTP{RegisterDevice: newRegisterDevice("OTP", base, 0x20)}
	for p := range o.pages {
		for i := range o.pages[p] {
			o.pages[p][i] = 0xFF
		}
	}
	o.seedPseudoUniqueID()
	o.seedPartString()
	o.declareRegisters()
	return o
}

func (o *OTP) seedPseudoUniqueID() {
	var id [16]byte
	binary.LittleEndian.PutUint64(id[0:8], 0xDEADBEEFCAFEBABE)
	binary.LittleEndian.PutUint64(id[8:16], 0x0123456789ABCDEF)
	o.programPage(otpPseudoIDPage, id[:], 0xFFFF)
}

func (o *OTP) seedPartString() {
	var page [16]byte
	copy(page[:], []byte("ADSP-BF524"))
	binary.LittleEndian.PutUint16(page[10:12], 0x420C)
	o.programPage(otpPartStrPage, page[:], 0xFFFF)
}

// programPage writes data into page under byteEnable, masking out
// disabled bytes, then recomputes the page's two Hamming parity bytes.
func (o *OTP) programPage(page int, data []byte, byteEnable uint16) {
	if page < 0 || page >= otpPageCount {
		return
	}
	for i := 0; i < otpPageBytes && i < len(data); i++ {
		if byteEnable&(1<<uint(i)) != 0 {
			o.pages[page][i] = data[i]
		}
	}
	lo := binary.LittleEndian.Uint64(o.pages[page][0:8])
	hi := binary.LittleEndian.Uint64(o.pages[page][8:16])
	o.ecc[page][0] = hamming7264Parity(lo)
	o.ecc[page][1] = hamming7264Parity(hi)
}

func (o *OTP) declareRegisters() {
	r := o.reg("OTP_PAGE", 0x00)
	r.AddField(Field{0, 16, func() uint32 { return o.page }, func(v uint32) { o.page = v & (otpPageCount - 1) }})

	r = o.reg("OTP_BEN", 0x04)
	r.AddField(Field{0, 16, func() uint32 { return uint32(o.ben) }, func(v uint32) { o.ben = uint16(v) }})

	for w := 0; w < 4; w++ {
		word := w
		r = o.reg("OTP_DATA", uint32(0x08+word*4))
		r.AddField(Field{0, 32, func() uint32 {
			return binary.LittleEndian.Uint32(o.pages[o.page][word*4 : word*4+4])
		}, func(v uint32) {
			binary.LittleEndian.PutUint32(o.staging[word*4:word*4+4], v)
		}})
	}

	r = o.reg("OTP_CMD", 0x18)
	r.AddField(Field{0, 8, constRead(0), func(v uint32) {
		switch v & 0x3 {
		case 1: // program
			o.programPage(int(o.page), o.staging[:], o.ben)
		case 2: // read: copy the stored page into the staging buffer
			// (OTP_DATA reads always return the stored page itself)
			o.staging = o.pages[o.page]
		}
	}})

	r = o.reg("OTP_ECC", 0x1C)
	r.AddField(Field{0, 8, func() uint32 { return uint32(o.ecc[o.page][0]) }, noWrite})
	r.AddField(Field{8, 8, func() uint32 { return uint32(o.ecc[o.page][1]) }, noWrite})
}
