package auction

// CustodyAddress is the module account that temporarily holds bid funds
// pending refund or final settlement, and acts as the approved operator for
// item transfers. It has no known private key.
var CustodyAddress = [20]byte{
	0x61, 0x75, 0x63, 0x74, 0x69, 0x6f, 0x6e, 0x2d, 0x63, 0x75,
	0x73, 0x74, 0x6f, 0x64, 0x79, 0x00, 0x00, 0x00, 0x00, 0x01,
}
