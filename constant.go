package iso8583

// defaultFields is the catalog used when none is supplied. Field 44 carries
// plain code points on the host link, so it bypasses the code table.
var defaultFields = map[int]FieldSpec{
	2: {Type: FieldTypeN, Length: 19, LengthDigits: 2, Description: "Primary Account Number (PAN)"},
	3: {Type: FieldTypeN, Length: 6, Mandatory: true, Description: "Processing Code"},
	4: {Type: FieldTypeN, Length: 12, Mandatory: true, Description: "Amount, Transaction"},
	5: {Type: FieldTypeN, Length: 12, Description: "Amount, Settlement"},
	6: {Type: FieldTypeN, Length: 12, Description: "Amount, Cardholder Billing"},
	7: {Type: FieldTypeN, Length: 10, Mandatory: true, Description: "Transmission Date & Time (MMDDhhmmss)"},
	8: {Type: FieldTypeN, Length: 8, Description: "Amount, Cardholder Billing Fee"},
	9: {Type: FieldTypeN, Length: 8, Description: "Conversion Rate, Settlement"},
	10: {Type: FieldTypeN, Length: 8, Description: "Conversion Rate, Cardholder Billing"},
	11: {Type: FieldTypeN, Length: 6, Mandatory: true, Description: "System Trace Audit Number (STAN)"},
	12: {Type: FieldTypeN, Length: 6, Mandatory: true, Description: "Time, Local Transaction (hhmmss)"},
	13: {Type: FieldTypeN, Length: 4, Mandatory: true, Description: "Date, Local Transaction (MMDD)"},
	14: {Type: FieldTypeN, Length: 4, Description: "Date, Expiration"},
	15: {Type: FieldTypeN, Length: 4, Description: "Date, Settlement"},
	16: {Type: FieldTypeN, Length: 4, Description: "Date, Conversion"},
	17: {Type: FieldTypeN, Length: 4, Description: "Date, Capture"},
	18: {Type: FieldTypeN, Length: 4, Description: "Merchant Type"},
	19: {Type: FieldTypeN, Length: 4, Description: "Acquiring Institution Country Code"},
	20: {Type: FieldTypeN, Length: 4, Description: "PAN Extended, Country Code"},
	21: {Type: FieldTypeN, Length: 3, Description: "Forwarding Institution Country Code"},
	22: {Type: FieldTypeN, Length: 3, Mandatory: true, Description: "Point of Service Entry Mode"},
	23: {Type: FieldTypeN, Length: 3, Description: "Application PAN Sequence Number"},
	24: {Type: FieldTypeN, Length: 3, Description: "Function Code (ISO 8583:1993) / Network International Identifier"},
	25: {Type: FieldTypeN, Length: 2, Mandatory: true, Description: "Point of Service Condition Code"},
	26: {Type: FieldTypeN, Length: 2, Description: "Point of Service Capture Code"},
	27: {Type: FieldTypeN, Length: 3, Description: "Authorizing Identification Response Length"},
	28: {Type: FieldTypeN, Length: 9, Description: "Amount, Transaction Fee (X+N 8)"},
	29: {Type: FieldTypeN, Length: 3, Description: "Amount, Settlement Fee (X+N 8)"},
	30: {Type: FieldTypeN, Length: 3, Description: "Amount, Transaction Processing Fee (X+N 8)"},
	31: {Type: FieldTypeN, Length: 99, LengthDigits: 2, Description: "Amount, Settlement Processing Fee (X+N 8)"},
	32: {Type: FieldTypeN, Length: 99, LengthDigits: 2, Description: "Acquiring Institution Identification Code"},
	33: {Type: FieldTypeN, Length: 99, LengthDigits: 2, Description: "Forwarding Institution Identification Code"},
	34: {Type: FieldTypeANS, Length: 28, LengthDigits: 2, Description: "Primary Account Number, Extended"},
	35: {Type: FieldTypeZ, Length: 37, LengthDigits: 2, Description: "Track 2 Data"},
	36: {Type: FieldTypeZ, Length: 99, LengthDigits: 2, Description: "Track 3 Data"},
	37: {Type: FieldTypeANS, Length: 12, Description: "Retrieval Reference Number"},
	38: {Type: FieldTypeANS, Length: 6, Description: "Authorization Identification Response"},
	39: {Type: FieldTypeANS, Length: 2, Description: "Response Code"},
	40: {Type: FieldTypeANS, Length: 3, Description: "Service Restriction Code"},
	41: {Type: FieldTypeANS, Length: 8, Description: "Card Acceptor Terminal Identification"},
	42: {Type: FieldTypeANS, Length: 15, Description: "Card Acceptor Identification Code"},
	43: {Type: FieldTypeANS, Length: 40, Description: "Card Acceptor Name/Location"},
	44: {Type: FieldTypeANS, Length: 25, LengthDigits: 2, ASCII: true, Description: "Additional Response Data"},
	45: {Type: FieldTypeANS, Length: 76, LengthDigits: 2, Description: "Track 1 Data"},
	46: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Additional Data - ISO"},
	47: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Additional Data - National"},
	48: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Additional Data - Private"},
	49: {Type: FieldTypeANS, Length: 3, Mandatory: true, Description: "Currency Code, Transaction"},
	50: {Type: FieldTypeANS, Length: 3, Description: "Currency Code, Settlement"},
	51: {Type: FieldTypeANS, Length: 3, Description: "Currency Code, Cardholder Billing"},
	52: {Type: FieldTypeB, Length: 8, Description: "Personal Identification Number (PIN) Data"},
	53: {Type: FieldTypeN, Length: 16, Description: "Security Related Control Information"},
	54: {Type: FieldTypeANS, Length: 120, LengthDigits: 3, Description: "Additional Amounts"},
	55: {Type: FieldTypeB, Length: 999, LengthDigits: 3, Description: "ICC Data (EMV)"},
	56: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved ISO"},
	57: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved National"},
	58: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved National"},
	59: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved National"},
	60: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved Private"},
	61: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved Private"},
	62: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved Private"},
	63: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved Private"},
	64: {Type: FieldTypeB, Length: 8, Description: "Message Authentication Code (MAC)"},

	// Secondary bitmap
	66: {Type: FieldTypeN, Length: 1, Description: "Settlement Code"},
	67: {Type: FieldTypeN, Length: 2, Description: "Extended Payment Code"},
	68: {Type: FieldTypeN, Length: 3, Description: "Receiving Institution Country Code"},
	69: {Type: FieldTypeN, Length: 3, Description: "Settlement Institution Country Code"},
	70: {Type: FieldTypeN, Length: 3, Description: "Network Management Information Code"},
	71: {Type: FieldTypeN, Length: 4, Description: "Message Number"},
	72: {Type: FieldTypeN, Length: 4, Description: "Message Number, Last"},
	73: {Type: FieldTypeN, Length: 6, Description: "Date, Action (YYMMDD)"},
	74: {Type: FieldTypeN, Length: 10, Description: "Credits, Number"},
	75: {Type: FieldTypeN, Length: 10, Description: "Credits, Reversal Number"},
	76: {Type: FieldTypeN, Length: 10, Description: "Debits, Number"},
	77: {Type: FieldTypeN, Length: 10, Description: "Debits, Reversal Number"},
	78: {Type: FieldTypeN, Length: 10, Description: "Transfer, Number"},
	79: {Type: FieldTypeN, Length: 10, Description: "Transfer, Reversal Number"},
	80: {Type: FieldTypeN, Length: 10, Description: "Inquiries, Number"},
	81: {Type: FieldTypeN, Length: 10, Description: "Authorizations, Number"},
	82: {Type: FieldTypeN, Length: 12, Description: "Credits, Processing Fee Amount"},
	83: {Type: FieldTypeN, Length: 12, Description: "Credits, Transaction Fee Amount"},
	84: {Type: FieldTypeN, Length: 12, Description: "Debits, Processing Fee Amount"},
	85: {Type: FieldTypeN, Length: 12, Description: "Debits, Transaction Fee Amount"},
	86: {Type: FieldTypeN, Length: 16, Description: "Credits, Amount"},
	87: {Type: FieldTypeN, Length: 16, Description: "Credits, Reversal Amount"},
	88: {Type: FieldTypeN, Length: 16, Description: "Debits, Amount"},
	89: {Type: FieldTypeN, Length: 16, Description: "Debits, Reversal Amount"},
	90: {Type: FieldTypeN, Length: 42, Description: "Original Data Elements"},
	91: {Type: FieldTypeANS, Length: 1, Description: "File Update Code"},
	92: {Type: FieldTypeANS, Length: 2, Description: "File Security Code"},
	93: {Type: FieldTypeANS, Length: 5, Description: "Response Indicator"},
	94: {Type: FieldTypeANS, Length: 7, Description: "Service Indicator"},
	95: {Type: FieldTypeANS, Length: 42, Description: "Replacement Amounts"},
	96: {Type: FieldTypeB, Length: 8, Description: "Message Security Code"},
	97: {Type: FieldTypeN, Length: 17, Description: "Amount, Net Settlement (X+N 16)"},
	98: {Type: FieldTypeANS, Length: 25, Description: "Payee"},
	99: {Type: FieldTypeN, Length: 11, LengthDigits: 2, Description: "Settlement Institution Identification Code"},
	100: {Type: FieldTypeN, Length: 11, LengthDigits: 2, Description: "Receiving Institution Identification Code"},
	101: {Type: FieldTypeANS, Length: 17, LengthDigits: 2, Description: "File Name"},
	102: {Type: FieldTypeANS, Length: 28, LengthDigits: 2, Description: "Account Identification 1"},
	103: {Type: FieldTypeANS, Length: 28, LengthDigits: 2, Description: "Account Identification 2"},
	104: {Type: FieldTypeANS, Length: 100, LengthDigits: 3, Description: "Transaction Description"},
	105: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	106: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	107: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	108: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	109: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	110: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	111: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for ISO Use"},
	112: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	113: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	114: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	115: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	116: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	117: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	118: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	119: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for National Use"},
	120: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	121: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	122: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	123: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	124: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	125: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	126: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	127: {Type: FieldTypeANS, Length: 999, LengthDigits: 3, Description: "Reserved for Private Use"},
	128: {Type: FieldTypeB, Length: 8, Description: "Message Authentication Code (MAC)"},
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *MapCatalog {
	c, err := NewMapCatalog(defaultFields)
	if err != nil {
		panic(err)
	}
	return c
}
