package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrNotAssigned       ErrCode = "NOT_ASSIGNED_OR_INACTIVE"
	ErrWrongExamPassword ErrCode = "INVALID_EXAM_PASSWORD"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrAttemptLockedByAdmin ErrCode = "ATTEMPT_LOCKED_BY_ADMIN"
	ErrSessionConflict      ErrCode = "SESSION_CONFLICT"
	ErrAttemptNotInProgress ErrCode = "ATTEMPT_NOT_IN_PROGRESS"
	ErrAlreadySubmitted     ErrCode = "ALREADY_SUBMITTED"
	ErrAttemptNotResettable ErrCode = "ATTEMPT_NOT_RESETTABLE"
	ErrAttemptHasAnswers    ErrCode = "ATTEMPT_HAS_ANSWERS"

	// ─── Answer key ────────────────────────────────────────────────────
	ErrMCQOptionsRequired  ErrCode = "MCQ_OPTIONS_REQUIRED"
	ErrDuplicateChoices    ErrCode = "DUPLICATE_CHOICES"
	ErrMCQCorrectRequired  ErrCode = "MCQ_CORRECT_REQUIRED"
	ErrTFCorrectRequired   ErrCode = "TF_CORRECT_REQUIRED"
	ErrDuplicateQuestion   ErrCode = "DUPLICATE_QUESTION"
	ErrMaxQuestionsReached ErrCode = "MAX_QUESTIONS_REACHED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username atau kata sandi salah."
	case ErrSessionActive:
		return "Anda sudah login di perangkat lain."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."
	case ErrNotAssigned:
		return "Ujian ini tidak tersedia untuk Anda."
	case ErrWrongExamPassword:
		return "Kata sandi ujian salah."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrAttemptLockedByAdmin:
		return "Sesi ujian Anda dikunci. Hubungi pengawas untuk membuka kembali."
	case ErrSessionConflict:
		return "Sesi ujian ini sedang dibuka di perangkat lain."
	case ErrAttemptNotInProgress:
		return "Sesi ujian tidak sedang berlangsung."
	case ErrAlreadySubmitted:
		return "Ujian sudah dikumpulkan."
	case ErrAttemptNotResettable:
		return "Sesi ujian tidak dapat direset pada status saat ini."
	case ErrAttemptHasAnswers:
		return "Sesi ujian memiliki jawaban tersimpan dan tidak dapat direset."

	// ─── Answer key ────────────────────────────────────────────────────
	case ErrMCQOptionsRequired:
		return "Soal pilihan ganda membutuhkan minimal dua opsi."
	case ErrDuplicateChoices:
		return "Opsi jawaban tidak boleh duplikat."
	case ErrMCQCorrectRequired:
		return "Jawaban benar harus salah satu dari opsi."
	case ErrTFCorrectRequired:
		return "Jawaban benar harus true atau false."
	case ErrDuplicateQuestion:
		return "Soal dengan teks yang sama sudah ada di ujian ini."
	case ErrMaxQuestionsReached:
		return "Jumlah maksimum soal untuk ujian ini telah tercapai."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
