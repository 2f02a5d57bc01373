package locale

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys for the short user-facing strings the backend emits itself.
const (
	MsgContactReceived    = "contact.received"
	MsgEnrollmentReceived = "enrollment.received"
	MsgEnrollmentWaitlist = "enrollment.waitlisted"
	MsgValidationFailed   = "form.validation_failed"
	MsgRateLimited        = "form.rate_limited"
	MsgTryAgainLater      = "form.try_again_later"
	MsgConfirmSubject     = "email.confirm_subject"
	MsgConfirmGreeting    = "email.confirm_greeting"
	MsgConfirmBody        = "email.confirm_body"
	MsgConfirmReference   = "email.confirm_reference"
	MsgConfirmNextSteps   = "email.confirm_next_steps"

	NextConfirmationEmail = "next.confirmation_email"
	NextContactReply      = "next.contact_reply"
	NextEnrollmentReview  = "next.enrollment_review"
	NextEnrollmentTour    = "next.enrollment_tour"
	NextWaitlistPosition  = "next.waitlist_position"

	PageHome       = "page.home"
	PageAbout      = "page.about"
	PagePrograms   = "page.programs"
	PageEnrollment = "page.enrollment"
	PageContact    = "page.contact"
)

var translations = map[string]map[string]string{
	English: {
		MsgContactReceived:    "Thank you for reaching out! We received your message.",
		MsgEnrollmentReceived: "Thank you! Your enrollment request has been received.",
		MsgEnrollmentWaitlist: "Thank you! The program is currently full, so your child has been added to the waitlist.",
		MsgValidationFailed:   "Please correct the highlighted fields and try again.",
		MsgRateLimited:        "Too many submissions. Please wait before trying again.",
		MsgTryAgainLater:      "We could not save your request right now. Please try again later.",
		MsgConfirmSubject:     "We received your request",
		MsgConfirmGreeting:    "Hello",
		MsgConfirmBody:        "Thank you for contacting us. Our team will get back to you shortly.",
		MsgConfirmReference:   "Your reference number",
		MsgConfirmNextSteps:   "What happens next",
		NextConfirmationEmail: "You will receive a confirmation email within 15 minutes.",
		NextContactReply:      "Our team replies to messages within one business day.",
		NextEnrollmentReview:  "Our enrollment team will review your request within 24-48 hours.",
		NextEnrollmentTour:    "We will contact you to schedule a tour of the center.",
		NextWaitlistPosition:  "We will let you know as soon as a spot opens in the program.",
		PageHome:              "Home",
		PageAbout:             "About us",
		PagePrograms:          "Programs",
		PageEnrollment:        "Enrollment",
		PageContact:           "Contact",
	},
	Spanish: {
		MsgContactReceived:    "¡Gracias por escribirnos! Hemos recibido su mensaje.",
		MsgEnrollmentReceived: "¡Gracias! Hemos recibido su solicitud de inscripción.",
		MsgEnrollmentWaitlist: "¡Gracias! El programa está completo, por lo que su hijo ha sido añadido a la lista de espera.",
		MsgValidationFailed:   "Por favor corrija los campos marcados e inténtelo de nuevo.",
		MsgRateLimited:        "Demasiados envíos. Por favor espere antes de intentarlo de nuevo.",
		MsgTryAgainLater:      "No pudimos guardar su solicitud en este momento. Inténtelo más tarde.",
		MsgConfirmSubject:     "Hemos recibido su solicitud",
		MsgConfirmGreeting:    "Hola",
		MsgConfirmBody:        "Gracias por contactarnos. Nuestro equipo se comunicará con usted pronto.",
		MsgConfirmReference:   "Su número de referencia",
		MsgConfirmNextSteps:   "Próximos pasos",
		NextConfirmationEmail: "Recibirá un correo de confirmación en los próximos 15 minutos.",
		NextContactReply:      "Nuestro equipo responde a los mensajes en un día hábil.",
		NextEnrollmentReview:  "Nuestro equipo de inscripción revisará su solicitud en 24-48 horas.",
		NextEnrollmentTour:    "Nos comunicaremos con usted para programar una visita al centro.",
		NextWaitlistPosition:  "Le avisaremos en cuanto se libere un lugar en el programa.",
		PageHome:              "Inicio",
		PageAbout:             "Quiénes somos",
		PagePrograms:          "Programas",
		PageEnrollment:        "Inscripción",
		PageContact:           "Contacto",
	},
	Polish: {
		MsgContactReceived:    "Dziękujemy za kontakt! Otrzymaliśmy Twoją wiadomość.",
		MsgEnrollmentReceived: "Dziękujemy! Otrzymaliśmy zgłoszenie zapisu.",
		MsgEnrollmentWaitlist: "Dziękujemy! Program jest pełny, dziecko zostało dopisane do listy oczekujących.",
		MsgValidationFailed:   "Popraw zaznaczone pola i spróbuj ponownie.",
		MsgRateLimited:        "Zbyt wiele zgłoszeń. Odczekaj chwilę przed kolejną próbą.",
		MsgTryAgainLater:      "Nie udało się zapisać zgłoszenia. Spróbuj ponownie później.",
		MsgConfirmSubject:     "Otrzymaliśmy Twoje zgłoszenie",
		MsgConfirmGreeting:    "Dzień dobry",
		MsgConfirmBody:        "Dziękujemy za kontakt. Nasz zespół wkrótce się odezwie.",
		MsgConfirmReference:   "Numer referencyjny",
		MsgConfirmNextSteps:   "Co dalej",
		NextConfirmationEmail: "W ciągu 15 minut otrzymasz e-mail z potwierdzeniem.",
		NextContactReply:      "Nasz zespół odpowiada na wiadomości w ciągu jednego dnia roboczego.",
		NextEnrollmentReview:  "Zespół rekrutacji rozpatrzy zgłoszenie w ciągu 24-48 godzin.",
		NextEnrollmentTour:    "Skontaktujemy się, aby umówić wizytę w placówce.",
		NextWaitlistPosition:  "Damy znać, gdy tylko zwolni się miejsce w programie.",
		PageHome:              "Strona główna",
		PageAbout:             "O nas",
		PagePrograms:          "Programy",
		PageEnrollment:        "Zapisy",
		PageContact:           "Kontakt",
	},
	Ukrainian: {
		MsgContactReceived:    "Дякуємо за звернення! Ми отримали ваше повідомлення.",
		MsgEnrollmentReceived: "Дякуємо! Ми отримали вашу заявку на зарахування.",
		MsgEnrollmentWaitlist: "Дякуємо! Програма заповнена, тому дитину додано до списку очікування.",
		MsgValidationFailed:   "Будь ласка, виправте позначені поля та спробуйте ще раз.",
		MsgRateLimited:        "Забагато спроб. Зачекайте, перш ніж спробувати знову.",
		MsgTryAgainLater:      "Не вдалося зберегти заявку. Спробуйте пізніше.",
		MsgConfirmSubject:     "Ми отримали вашу заявку",
		MsgConfirmGreeting:    "Вітаємо",
		MsgConfirmBody:        "Дякуємо, що звернулися до нас. Наша команда незабаром зв'яжеться з вами.",
		MsgConfirmReference:   "Ваш номер заявки",
		MsgConfirmNextSteps:   "Що далі",
		NextConfirmationEmail: "Протягом 15 хвилин ви отримаєте лист із підтвердженням.",
		NextContactReply:      "Наша команда відповідає на повідомлення протягом одного робочого дня.",
		NextEnrollmentReview:  "Наша команда розгляне вашу заявку протягом 24-48 годин.",
		NextEnrollmentTour:    "Ми зв'яжемося з вами, щоб домовитися про екскурсію центром.",
		NextWaitlistPosition:  "Ми повідомимо вас, щойно в програмі звільниться місце.",
		PageHome:              "Головна",
		PageAbout:             "Про нас",
		PagePrograms:          "Програми",
		PageEnrollment:        "Зарахування",
		PageContact:           "Контакти",
	},
}

var printers = buildPrinters()

// buildPrinters loads translations into an x/text catalog with English as
// the fallback and keeps one printer per supported locale.
func buildPrinters() map[string]*message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for code, msgs := range translations {
		tag := language.MustParse(code)
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("locale: %s %s: %v", code, key, err))
			}
		}
	}
	out := make(map[string]*message.Printer, len(translations))
	for code := range translations {
		out[code] = message.NewPrinter(language.MustParse(code), message.Catalog(b))
	}
	return out
}

// Message returns the string for key in code, falling back to English and
// then to the key itself.
func Message(code, key string) string {
	p, ok := printers[code]
	if !ok {
		p = printers[English]
	}
	return p.Sprintf(key)
}
