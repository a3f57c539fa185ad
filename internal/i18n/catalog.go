package i18n

// Key identifies a translatable message.
type Key string

const (
	TierStandard    Key = "tier.standard"
	TierFastTrack   Key = "tier.fast_track"
	TierEarlyAccess Key = "tier.early_access"
	TierVIPAccess   Key = "tier.vip_access"

	UploadErrorUpload        Key = "upload.error.upload"
	UploadErrorServer        Key = "upload.error.server"
	UploadErrorTooLarge      Key = "upload.error.too_large"
	UploadErrorUnreadablePDF Key = "upload.error.unreadable_pdf"
	UploadErrorConversion    Key = "upload.error.conversion"
	UploadDoneText           Key = "upload.done.text_extraction"
	UploadDoneVision         Key = "upload.done.vision_api"
	UploadDoneFallback       Key = "upload.done.pdf_to_image"
	UploadFailed             Key = "upload.failed"

	WaitlistNameRequired  Key = "waitlist.error.name_required"
	WaitlistEmailRequired Key = "waitlist.error.email_required"
	WaitlistEmailInvalid  Key = "waitlist.error.email_invalid"
	WaitlistPhoneRequired Key = "waitlist.error.phone_required"
	WaitlistPhoneInvalid  Key = "waitlist.error.phone_invalid"
	WaitlistGenericError  Key = "waitlist.error.generic"
	WaitlistNotFound      Key = "waitlist.error.not_found"
	WaitlistWelcomeSubj   Key = "waitlist.welcome.subject"
	WaitlistWelcomeBody   Key = "waitlist.welcome.body"
	WaitlistAlreadyJoined Key = "waitlist.already_joined"
)

var english = map[Key]string{
	TierStandard:    "Standard",
	TierFastTrack:   "Fast Track",
	TierEarlyAccess: "Early Access",
	TierVIPAccess:   "VIP Access",

	UploadErrorUpload:        "We couldn't upload your document. Please try again.",
	UploadErrorServer:        "Something went wrong while analysing your document. Please try again.",
	UploadErrorTooLarge:      "The file is larger than 10MB. Please upload a smaller file.",
	UploadErrorUnreadablePDF: "We couldn't read the text in this PDF. Please upload a photo or screenshot of the document instead.",
	UploadErrorConversion:    "We couldn't convert this PDF. Please upload a photo or screenshot of the document instead.",
	UploadDoneText:           "Your document was read successfully.",
	UploadDoneVision:         "Your image was analysed successfully.",
	UploadDoneFallback:       "Your PDF was converted to images and analysed successfully.",
	UploadFailed:             "Document analysis failed.",

	WaitlistNameRequired:  "Please enter your name.",
	WaitlistEmailRequired: "Please enter your email address.",
	WaitlistEmailInvalid:  "Please enter a valid email address.",
	WaitlistPhoneRequired: "Please enter your phone number.",
	WaitlistPhoneInvalid:  "Please enter a valid 9-digit mobile number starting with 5.",
	WaitlistGenericError:  "We couldn't add you to the waitlist. Please try again.",
	WaitlistNotFound:      "We couldn't find that waitlist entry.",
	WaitlistWelcomeSubj:   "You're on the waitlist",
	WaitlistWelcomeBody:   "Hi %s, you are number %d on the waitlist. Share your referral code %s to move up.",
	WaitlistAlreadyJoined: "You're already on the waitlist.",
}

var arabic = map[Key]string{
	TierStandard:    "عادي",
	TierFastTrack:   "المسار السريع",
	TierEarlyAccess: "الوصول المبكر",
	TierVIPAccess:   "وصول كبار الشخصيات",

	UploadErrorUpload:        "تعذر رفع المستند. يرجى المحاولة مرة أخرى.",
	UploadErrorServer:        "حدث خطأ أثناء تحليل المستند. يرجى المحاولة مرة أخرى.",
	UploadErrorTooLarge:      "حجم الملف أكبر من 10 ميجابايت. يرجى رفع ملف أصغر.",
	UploadErrorUnreadablePDF: "تعذرت قراءة النص في ملف PDF هذا. يرجى رفع صورة أو لقطة شاشة للمستند بدلاً من ذلك.",
	UploadErrorConversion:    "تعذر تحويل ملف PDF هذا. يرجى رفع صورة أو لقطة شاشة للمستند بدلاً من ذلك.",
	UploadDoneText:           "تمت قراءة المستند بنجاح.",
	UploadDoneVision:         "تم تحليل الصورة بنجاح.",
	UploadDoneFallback:       "تم تحويل ملف PDF إلى صور وتحليله بنجاح.",
	UploadFailed:             "فشل تحليل المستند.",

	WaitlistNameRequired:  "يرجى إدخال اسمك.",
	WaitlistEmailRequired: "يرجى إدخال بريدك الإلكتروني.",
	WaitlistEmailInvalid:  "يرجى إدخال بريد إلكتروني صحيح.",
	WaitlistPhoneRequired: "يرجى إدخال رقم جوالك.",
	WaitlistPhoneInvalid:  "يرجى إدخال رقم جوال صحيح مكون من 9 أرقام يبدأ بالرقم 5.",
	WaitlistGenericError:  "تعذرت إضافتك إلى قائمة الانتظار. يرجى المحاولة مرة أخرى.",
	WaitlistNotFound:      "لم نتمكن من العثور على هذا التسجيل.",
	WaitlistWelcomeSubj:   "أنت الآن في قائمة الانتظار",
	WaitlistWelcomeBody:   "مرحباً %s، ترتيبك في قائمة الانتظار هو %d. شارك رمز الإحالة %s للتقدم في القائمة.",
	WaitlistAlreadyJoined: "أنت مسجل بالفعل في قائمة الانتظار.",
}
