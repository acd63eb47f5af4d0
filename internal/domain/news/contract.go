package news

import "time"

type NewsContract struct {
	ID                   int64      `json:"id"`
	UUID                 string     `json:"uuid"`
	Title                string     `json:"title" validate:"notblank"`
	Content              string     `json:"content"`
	ContentHTML          string     `json:"contentHtml"`
	HeroImage            string     `json:"heroImage"`
	PublishedDate        *time.Time `json:"publishedDate"`
	Voided               bool       `json:"voided"`
	LastModifiedDateTime time.Time  `json:"lastModifiedDateTime"`
}

func ContractFrom(n *News) NewsContract {
	return NewsContract{
		ID:                   n.ID,
		UUID:                 n.UUID,
		Title:                n.Title,
		Content:              n.Content,
		ContentHTML:          n.ContentHTML,
		HeroImage:            n.HeroImage,
		PublishedDate:        n.PublishedDate,
		Voided:               n.Voided,
		LastModifiedDateTime: n.LastModified,
	}
}
