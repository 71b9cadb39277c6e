package xmodem

// CRC16 computes the CRC-16/XMODEM checksum: polynomial 0x1021, initial
// value 0x0000, no input/output reflection (spec.md §4.5). Table-free, in
// the spirit of the teacher's il2p_crc.go bit-by-bit CRC-16-CCITT routine —
// XMODEM transfers are small enough that a lookup table isn't worth the
// extra surface.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
