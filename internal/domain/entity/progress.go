package entity

// Progress ход обработки видео после очередного кадра
type Progress struct {
	Processed int     // обработано кадров
	Total     int     // заявлено контейнером, 0 если неизвестно
	Fraction  float64 // доля 0..1, имеет смысл только при Known
	Known     bool    // false, если число кадров неизвестно
}

// NewProgress считает долю выполнения. Если контейнер не сообщил число
// кадров, прогресс неопределён.
func NewProgress(processed, total int) Progress {
	p := Progress{Processed: processed, Total: total}
	if total <= 0 {
		return p
	}
	p.Known = true
	p.Fraction = float64(processed) / float64(total)
	if p.Fraction > 1 {
		p.Fraction = 1
	}
	return p
}
