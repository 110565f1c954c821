package detect

// Curated vocabularies for the heuristic classifier. These are substring
// matched against a normalized blob of an element's descriptive attributes,
// so they are deliberately short stems ("exp" also hits "expiry-month").
// English and Korean are covered; the lists are tuning surfaces, not APIs.

var piiKeywords = []string{
	"name",
	"account",
	"email",
	"phone",
	"tel",
	"address",
	"street",
	"city",
	"zip",
	"postal",
	"birthday",
	"birth",
	"ssn",
	"social",
	"passport",
	"national",
	"이름",
	"성명",
	"성함",
	"아이디",
	"계정",
	"회원번호",
	"이메일",
	"메일",
	"전화",
	"휴대폰",
	"핸드폰",
	"휴대전화",
	"연락처",
	"주소",
	"우편",
	"우편번호",
	"생년월일",
	"생일",
	"주민등록",
	"주민번호",
	"여권",
	"국적",
	"운전면허",
	"사업자",
	"사업자번호",
}

// Standard autocomplete tokens that mark a field as personal information with
// high confidence. Matched as prefixes so "tel-national" hits "tel".
var piiAutocomplete = []string{
	"name",
	"given-name",
	"family-name",
	"email",
	"tel",
	"tel-national",
	"tel-country-code",
	"street-address",
	"address-line1",
	"address-line2",
	"postal-code",
	"country",
	"bday",
	"bday-day",
	"bday-month",
	"bday-year",
}

// Too-broad stems here ("account") make login fields classify as payment;
// that precedence is preserved on purpose, see the submission client.
var paymentKeywords = []string{
	"card",
	"cc",
	"cvv",
	"cvc",
	"expiry",
	"exp",
	"billing",
	"bank",
	"payment",
	"accountnumber",
	"accountno",
	"acct",
	"iban",
	"routing",
	"카드",
	"신용카드",
	"체크카드",
	"카드번호",
	"유효기간",
	"만료",
	"보안코드",
	"결제수단",
	"계좌",
	"계좌번호",
	"은행",
	"송금",
	"입금",
	"출금",
}

// The cc-* autocomplete family is the strongest payment signal available.
var paymentAutocomplete = []string{
	"cc-number",
	"cc-csc",
	"cc-exp",
	"cc-exp-month",
	"cc-exp-year",
	"cc-name",
	"cc-given-name",
	"cc-family-name",
}

var paymentButtonKeywords = []string{
	"pay",
	"checkout",
	"purchase",
	"buy",
	"order",
	"subscribe",
	"donate",
	"결제",
	"결재",
	"구매",
	"주문",
	"구독",
	"후원",
	"기부",
}

// DownloadExtensions is the risk allow-list shared by the anchor classifier
// and the download watcher.
var DownloadExtensions = []string{"exe", "zip", "dmg", "apk", "msi", "pdf"}
